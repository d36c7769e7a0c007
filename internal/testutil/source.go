package testutil

import (
	"time"

	"prax-go/internal/model"
	"prax-go/internal/photos"
)

// Day returns midnight UTC on the nth day of January 2024.
func Day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

// NewTestSource returns an empty in-memory source that grants access.
func NewTestSource() *photos.MemorySource {
	return photos.NewMemorySource()
}

// TripScenario is a source with folder F holding regular album A, which
// holds images I1 (Jan 1) and I2 (Jan 2).
func TripScenario() *photos.MemorySource {
	return photos.NewMemorySource().
		AddItem("I1", model.MediaImage, Day(1)).
		AddItem("I2", model.MediaImage, Day(2)).
		AddAlbum("A", "Rome", "I1", "I2").
		AddFolder("F", "Trips", "A")
}

// LibraryScenario is a larger source:
//
//	F1 Trips:   A1 Rome {I1, I2}, A2 Paris {I2, I3}
//	F2 Family:  A3 Birthday {I4}
//	smart S1 Favorites {I1, I5}
//	I6 is a video in no album; I5 is in no regular album.
func LibraryScenario() *photos.MemorySource {
	return photos.NewMemorySource().
		AddItem("I1", model.MediaImage, Day(1)).
		AddItem("I2", model.MediaImage, Day(2)).
		AddItem("I3", model.MediaImage, Day(3)).
		AddItem("I4", model.MediaImage, Day(4)).
		AddItem("I5", model.MediaImage, Day(5)).
		AddItem("I6", model.MediaVideo, Day(6)).
		AddAlbum("A1", "Rome", "I1", "I2").
		AddAlbum("A2", "Paris", "I2", "I3").
		AddAlbum("A3", "Birthday", "I4").
		AddSmartAlbum("S1", "Favorites", "I1", "I5").
		AddFolder("F1", "Trips", "A1", "A2").
		AddFolder("F2", "Family", "A3")
}
