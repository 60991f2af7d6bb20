package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/lecture"
)

type (
	DB struct {
		lecture *lectureTable
	}

	lectureTable struct {
		t     map[string]*lecture.Lecture
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		lecture: &lectureTable{t: make(map[string]*lecture.Lecture)},
	}
	return db, nil
}
