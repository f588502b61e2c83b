package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func sortClasses(classes []school.Class) []school.Class {
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes
}

func (repo *schoolRepository) QueryAllClasses(_ context.Context) ([]school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		classes = append(classes, cls)
	}
	return sortClasses(classes), nil
}

func (repo *schoolRepository) QueryClassesByUser(_ context.Context, userID int) ([]school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.Class, 0)
	for key := range repo.db.enrollments {
		if key.userID == userID {
			if cls, ok := repo.db.classes[key.classID]; ok {
				classes = append(classes, cls)
			}
		}
	}
	return sortClasses(classes), nil
}

func (repo *schoolRepository) GetClassByID(_ context.Context, id int) (school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) queryMaterials(match func(school.Material) bool) []school.Material {
	mats := make([]school.Material, 0)
	for _, mat := range repo.db.materials {
		if match(mat) {
			if usr, ok := repo.db.users[mat.UploadedBy]; ok {
				mat.UploadedByName = usr.Name
			}
			if cls, ok := repo.db.classes[mat.ClassID]; ok {
				mat.ClassName = cls.Name
			}
			mats = append(mats, mat)
		}
	}
	sort.Slice(mats, func(i, j int) bool {
		if mats[i].CreatedAt.Equal(mats[j].CreatedAt) {
			return mats[i].ID > mats[j].ID
		}
		return mats[i].CreatedAt.After(mats[j].CreatedAt)
	})
	return mats
}

func (repo *schoolRepository) QueryMaterialsByClass(_ context.Context, classID int) ([]school.Material, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.queryMaterials(func(mat school.Material) bool { return mat.ClassID == classID }), nil
}

func (repo *schoolRepository) QueryAllMaterials(_ context.Context) ([]school.Material, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.queryMaterials(func(school.Material) bool { return true }), nil
}

func (repo *schoolRepository) StudentExists(_ context.Context, id int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	usr, ok := repo.db.users[id]
	return ok && usr.Role == user.RoleStudent, nil
}

func (repo *schoolRepository) IsEnrolled(_ context.Context, userID, classID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.enrollments[enrollmentKey{userID, classID}]
	return ok, nil
}

func (repo *schoolRepository) CreateEnrollment(_ context.Context, userID, classID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := enrollmentKey{userID, classID}
	if _, ok := repo.db.enrollments[key]; !ok {
		repo.db.enrollments[key] = time.Now().UTC()
	}
	return nil
}

func (repo *schoolRepository) DeleteEnrollment(_ context.Context, userID, classID int) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := enrollmentKey{userID, classID}
	if _, ok := repo.db.enrollments[key]; !ok {
		return false, nil
	}
	delete(repo.db.enrollments, key)
	return true, nil
}

func (repo *schoolRepository) queryStudents(match func(user.User) bool) []school.Student {
	students := make([]school.Student, 0)
	for _, usr := range repo.db.users {
		if usr.Role != user.RoleStudent || !match(usr) {
			continue
		}

		names := make([]string, 0)
		for key := range repo.db.enrollments {
			if key.userID == usr.ID {
				if cls, ok := repo.db.classes[key.classID]; ok {
					names = append(names, cls.Name)
				}
			}
		}
		sort.Strings(names)

		students = append(students, school.Student{
			ID:              usr.ID,
			Email:           usr.Email,
			Name:            usr.Name,
			AssignedClasses: strings.Join(names, ","),
			CreatedAt:       usr.CreatedAt,
		})
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

func (repo *schoolRepository) QueryStudents(_ context.Context) ([]school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.queryStudents(func(user.User) bool { return true }), nil
}

func (repo *schoolRepository) QueryUnassignedStudents(_ context.Context) ([]school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.queryStudents(func(usr user.User) bool {
		for key := range repo.db.enrollments {
			if key.userID == usr.ID {
				return false
			}
		}
		return true
	}), nil
}

func (repo *schoolRepository) QueryStudentClasses(_ context.Context, userID int) ([]school.StudentClass, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.StudentClass, 0)
	for key, assignedAt := range repo.db.enrollments {
		if key.userID == userID {
			if cls, ok := repo.db.classes[key.classID]; ok {
				classes = append(classes, school.StudentClass{Class: cls, AssignedAt: assignedAt})
			}
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) CreateMaterial(_ context.Context, mat school.Material) (school.Material, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.nextMaterialID++
	mat.ID = repo.db.nextMaterialID
	if mat.CreatedAt.IsZero() {
		mat.CreatedAt = time.Now().UTC()
	}
	repo.db.materials[mat.ID] = mat
	return mat, nil
}

func (repo *schoolRepository) DeleteMaterial(_ context.Context, id int) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.materials[id]; !ok {
		return false, nil
	}
	delete(repo.db.materials, id)
	return true, nil
}
