package inmemdb

import (
	"sort"
	"time"

	"github.com/trezcool/darasa/core/lecture"
)

type lectureRepository struct {
	db *lectureTable
}

var _ lecture.Repository = (*lectureRepository)(nil)

func NewLectureRepository(db *DB) *lectureRepository {
	return &lectureRepository{db: db.lecture}
}

func (r *lectureRepository) query() []lecture.Lecture {
	res := make([]lecture.Lecture, 0, len(r.db.t))
	for _, lec := range r.db.t {
		res = append(res, *lec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *lectureRepository) CreateLecture(lec lecture.Lecture) (lecture.Lecture, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	cp := lec
	r.db.t[lec.ID] = &cp
	return lec, nil
}

func (r *lectureRepository) QueryAllLectures() ([]lecture.Lecture, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	return r.query(), nil
}

func (r *lectureRepository) GetLectureByID(id string) (lecture.Lecture, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if lec, ok := r.db.t[id]; ok {
		return *lec, nil
	}
	return lecture.Lecture{}, lecture.ErrNotFound
}

func (r *lectureRepository) GetTeacherLecture(id, teacherID string) (lecture.Lecture, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if lec, ok := r.db.t[id]; ok && lec.TeacherID == teacherID {
		return *lec, nil
	}
	return lecture.Lecture{}, lecture.ErrNotFound
}

func (r *lectureRepository) FilterLectures(filter lecture.QueryFilter) ([]lecture.Lecture, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]lecture.Lecture, 0)
	for _, lec := range r.query() {
		if !filter.Day.IsZero() && !sameDay(lec.Schedule.Date, filter.Day) {
			continue
		}
		if filter.Status != "" && lec.Status != filter.Status {
			continue
		}
		if filter.TeacherID != "" && lec.TeacherID != filter.TeacherID {
			continue
		}
		res = append(res, lec)
	}
	return res, nil
}

func (r *lectureRepository) UpdateLecture(lec lecture.Lecture) (lecture.Lecture, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[lec.ID]; !ok {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	cp := lec
	r.db.t[lec.ID] = &cp
	return lec, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
