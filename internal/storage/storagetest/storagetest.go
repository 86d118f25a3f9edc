// Package storagetest is the behaviour every storage.Storage
// implementation must share. Backend packages call Run from their own
// tests with a constructor for an empty store.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest and is
// responsible for registering its own cleanup.
type Factory func(t *testing.T) storage.Storage

// Run executes the full conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateThenGet", testCreateThenGet},
		{"GetMissing", testGetMissing},
		{"ListEmpty", testListEmpty},
		{"ListNewestFirst", testListNewestFirst},
		{"DuplicateEmailIgnoresCase", testDuplicateEmailIgnoresCase},
		{"RejectsCourseOutsideEnumeration", testRejectsCourseOutsideEnumeration},
		{"RejectsStatusOutsideEnumeration", testRejectsStatusOutsideEnumeration},
		{"UpdateRefreshesTimestamp", testUpdateRefreshesTimestamp},
		{"UpdateMissing", testUpdateMissing},
		{"UpdateToTakenEmail", testUpdateToTakenEmail},
		{"UpdateRejectedLeavesRecordUnchanged", testUpdateRejectedLeavesRecordUnchanged},
		{"DeleteTwice", testDeleteTwice},
		{"FilterByStatusKeepsStoreOrder", testFilterByStatusKeepsStoreOrder},
		{"FilterByUnknownStatus", testFilterByUnknownStatus},
		{"FilterByCourse", testFilterByCourse},
		{"SearchMatchesAnyField", testSearchMatchesAnyField},
		{"SearchFoldsNonASCII", testSearchFoldsNonASCII},
		{"SearchIsLiteral", testSearchIsLiteral},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// Sample returns a valid, already-normalised student.
func Sample(name, email string) types.Student {
	return types.Student{
		Name:   name,
		Email:  email,
		Phone:  "0712345671",
		Course: types.CourseComputerScience,
		Status: types.StatusPending,
	}
}

func mustCreate(t *testing.T, s storage.Storage, st types.Student) types.Student {
	t.Helper()
	created, err := s.CreateStudent(context.Background(), st)
	require.NoError(t, err)
	return created
}

func names(students []types.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}

// tick makes sure consecutive writes get distinct timestamps.
func tick() { time.Sleep(2 * time.Millisecond) }

func testCreateThenGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	in := Sample("Alice Johnson", "alice@example.com")
	in.Status = types.StatusActive

	created := mustCreate(t, s, in)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.False(t, created.UpdatedAt.IsZero())

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, in.Phone, got.Phone)
	assert.Equal(t, in.Course, got.Course)
	assert.Equal(t, in.Status, got.Status)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, 0)
	assert.WithinDuration(t, created.UpdatedAt, got.UpdatedAt, 0)
}

func testGetMissing(t *testing.T, s storage.Storage) {
	_, err := s.GetStudentByID(context.Background(), storage.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListEmpty(t *testing.T, s storage.Storage) {
	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func testListNewestFirst(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("First", "first@example.com"))
	tick()
	mustCreate(t, s, Sample("Second", "second@example.com"))
	tick()
	mustCreate(t, s, Sample("Third", "third@example.com"))

	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Third", "Second", "First"}, names(students))
}

func testDuplicateEmailIgnoresCase(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	_, err := s.CreateStudent(context.Background(), Sample("Alice Again", "ALICE@Example.com"))
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 1, "rejected insert must not overwrite or add")
}

func testRejectsCourseOutsideEnumeration(t *testing.T, s storage.Storage) {
	in := Sample("Alice Johnson", "alice@example.com")
	in.Course = "Underwater Basket Weaving"

	_, err := s.CreateStudent(context.Background(), in)
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func testRejectsStatusOutsideEnumeration(t *testing.T, s storage.Storage) {
	in := Sample("Alice Johnson", "alice@example.com")
	in.Status = "Suspended"

	_, err := s.CreateStudent(context.Background(), in)
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func testUpdateRefreshesTimestamp(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))
	tick()

	change := created
	change.Status = types.StatusGraduated
	change.Course = types.CourseDataScience
	updated, err := s.UpdateStudentByID(ctx, created.ID, change)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, types.StatusGraduated, updated.Status)
	assert.Equal(t, types.CourseDataScience, updated.Course)
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, 0)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusGraduated, got.Status)
}

func testUpdateMissing(t *testing.T, s storage.Storage) {
	_, err := s.UpdateStudentByID(context.Background(), storage.NewID(), Sample("Ghost", "ghost@example.com"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdateToTakenEmail(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))
	bob := mustCreate(t, s, Sample("Bob Smith", "bob@example.com"))

	bob.Email = "alice@example.com"
	_, err := s.UpdateStudentByID(context.Background(), bob.ID, bob)
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
}

func testUpdateRejectedLeavesRecordUnchanged(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	change := created
	change.Course = "Astrology"
	_, err := s.UpdateStudentByID(ctx, created.ID, change)
	require.ErrorIs(t, err, storage.ErrConstraint)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CourseComputerScience, got.Course)
	assert.WithinDuration(t, created.UpdatedAt, got.UpdatedAt, 0)
}

func testDeleteTwice(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	require.NoError(t, s.DeleteStudentByID(ctx, created.ID))
	assert.ErrorIs(t, s.DeleteStudentByID(ctx, created.ID), storage.ErrNotFound)

	_, err := s.GetStudentByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The email is free again once the record is gone.
	mustCreate(t, s, Sample("Alice Returns", "alice@example.com"))
}

func testFilterByStatusKeepsStoreOrder(t *testing.T, s storage.Storage) {
	seed := []struct {
		name, email string
		status      types.Status
	}{
		{"One", "one@example.com", types.StatusActive},
		{"Two", "two@example.com", types.StatusPending},
		{"Three", "three@example.com", types.StatusActive},
	}
	for _, row := range seed {
		st := Sample(row.name, row.email)
		st.Status = row.status
		mustCreate(t, s, st)
		tick()
	}

	students, err := s.GetStudentsWhere(context.Background(), storage.Filter{Status: "Active"})
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Three"}, names(students))
}

func testFilterByUnknownStatus(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	students, err := s.GetStudentsWhere(context.Background(), storage.Filter{Status: "active"})
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students, "status match is exact")
}

func testFilterByCourse(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))
	ds := Sample("Dana Scully", "dana@example.com")
	ds.Course = types.CourseDataScience
	mustCreate(t, s, ds)

	students, err := s.GetStudentsWhere(context.Background(), storage.Filter{Course: string(types.CourseDataScience)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dana Scully"}, names(students))
}

func testSearchMatchesAnyField(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	alice := Sample("Alice Johnson", "alice@example.com")
	alice.Phone = "0712345671"
	bob := Sample("Bob Smith", "bob@example.com")
	bob.Phone = "0799999999"
	mustCreate(t, s, alice)
	tick()
	mustCreate(t, s, bob)

	byName, err := s.GetStudentsWhere(ctx, storage.Filter{Search: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Johnson"}, names(byName))

	byNameUpper, err := s.GetStudentsWhere(ctx, storage.Filter{Search: "SMITH"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob Smith"}, names(byNameUpper))

	byPhone, err := s.GetStudentsWhere(ctx, storage.Filter{Search: "99999"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob Smith"}, names(byPhone))

	byDomain, err := s.GetStudentsWhere(ctx, storage.Filter{Search: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Johnson", "Bob Smith"}, names(byDomain))
}

func testSearchFoldsNonASCII(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Émile Zola", "emile@example.com"))
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	for _, token := range []string{"Émile", "émile", "ÉMILE", "zola"} {
		students, err := s.GetStudentsWhere(context.Background(), storage.Filter{Search: token})
		require.NoError(t, err)
		assert.Equal(t, []string{"Émile Zola"}, names(students), "token %q", token)
	}
}

func testSearchIsLiteral(t *testing.T, s storage.Storage) {
	mustCreate(t, s, Sample("Alice Johnson", "alice@example.com"))

	for _, token := range []string{"%", "_", "a%e"} {
		students, err := s.GetStudentsWhere(context.Background(), storage.Filter{Search: token})
		require.NoError(t, err)
		assert.Empty(t, students, "token %q must be matched literally", token)
	}
}

func testPing(t *testing.T, s storage.Storage) {
	assert.NoError(t, s.Ping(context.Background()))
}
