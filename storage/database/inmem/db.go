// Package inmem provides in-memory repository implementations for tests
// and local development without Postgres.
package inmem

import (
	"sync"
	"time"

	"github.com/sadhanalabs/sadhana/core/practice"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

type enrollmentKey struct {
	userID  int
	classID int
}

type DB struct {
	mu sync.RWMutex

	users       map[int]user.User
	classes     map[int]school.Class
	enrollments map[enrollmentKey]time.Time // value: assignedAt
	materials   map[int]school.Material
	sessions    map[int]practice.Session

	nextUserID     int
	nextClassID    int
	nextMaterialID int
	nextSessionID  int
}

func NewDB() *DB {
	return &DB{
		users:       make(map[int]user.User),
		classes:     make(map[int]school.Class),
		enrollments: make(map[enrollmentKey]time.Time),
		materials:   make(map[int]school.Material),
		sessions:    make(map[int]practice.Session),
	}
}

// AddClass seeds a class, the way the seed migration does in Postgres.
func (db *DB) AddClass(name, description string) school.Class {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextClassID++
	cls := school.Class{
		ID:          db.nextClassID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	db.classes[cls.ID] = cls
	return cls
}
