package registration

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	*FileRepository
}

func (failingRepo) Append(context.Context, Record) error { return errors.New("disk full") }

func newFileService(t *testing.T) (*Service, *FileRepository) {
	t.Helper()
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "registrations.csv"))
	require.NoError(t, err)
	return NewService(repo), repo
}

func TestRegister_AppendsStampedRecord(t *testing.T) {
	svc, repo := newFileService(t)
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("IST", 5*3600+1800))
	svc.now = func() time.Time { return fixed }

	rec, err := svc.Register(context.Background(), Submission{
		Name: "Asha", Mobile: "9999999999", Course: "Python Basic",
		Extra: map[string]string{"city": "Pune"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, fixed.UTC().Truncate(time.Second), rec.Timestamp)

	all, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rec, all[0])
}

func TestRegister_MissingFieldsNeverAppend(t *testing.T) {
	svc, repo := newFileService(t)

	cases := []Submission{
		{Mobile: "1", Course: "Go"},
		{Name: "A", Course: "Go"},
		{Name: "A", Mobile: "1"},
		{Name: "   ", Mobile: "1", Course: "Go"},
		{},
	}
	for _, sub := range cases {
		_, err := svc.Register(context.Background(), sub)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}

	all, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegister_ValidationListsFields(t *testing.T) {
	svc, _ := newFileService(t)
	_, err := svc.Register(context.Background(), Submission{Name: "A"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"mobile", "course"}, verr.Fields)
	assert.Equal(t, "Missing required fields: mobile, course", verr.Error())
}

func TestRegister_TimestampsNeverDecrease(t *testing.T) {
	svc, _ := newFileService(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base.Add(5 * time.Second), base, base.Add(7 * time.Second)}
	i := 0
	svc.now = func() time.Time { t := clock[i]; i++; return t }

	var got []time.Time
	for range clock {
		rec, err := svc.Register(context.Background(), Submission{Name: "n", Mobile: "m", Course: "c"})
		require.NoError(t, err)
		got = append(got, rec.Timestamp)
	}
	assert.Equal(t, []time.Time{base.Add(5 * time.Second), base.Add(5 * time.Second), base.Add(7 * time.Second)}, got)
}

func TestRegister_AppendFailureWrapped(t *testing.T) {
	svc := NewService(failingRepo{&FileRepository{}})
	_, err := svc.Register(context.Background(), Submission{Name: "n", Mobile: "m", Course: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append registration")
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestRegister_ConcurrentAppendsAllLand(t *testing.T) {
	svc, repo := newFileService(t)
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), Submission{
				Name: "Student", Mobile: "12345", Course: "Data, Science \"Intro\"",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, n)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp))
	}
}

func TestSubmissionFromPayload(t *testing.T) {
	sub := SubmissionFromPayload(map[string]any{
		"name":      "Ravi",
		"mobile":    float64(8888888888),
		"course":    "Python Basic",
		"timestamp": "1999-01-01 00:00:00",
		"id":        "client-chosen",
		"batch":     map[string]any{"slot": "morning"},
		"consent":   true,
		"note":      nil,
	})

	assert.Equal(t, "Ravi", sub.Name)
	assert.Equal(t, "8888888888", sub.Mobile)
	assert.Equal(t, "Python Basic", sub.Course)
	assert.Equal(t, map[string]string{
		"batch":   `{"slot":"morning"}`,
		"consent": "true",
	}, sub.Extra)
}

func TestRegister_FoldsCRLFSoStoredMatchesReturned(t *testing.T) {
	svc, repo := newFileService(t)

	rec, err := svc.Register(context.Background(), Submission{
		Name: "Asha\r\nK", Mobile: "99\r", Course: "Go\r\r\n",
		Extra: map[string]string{"note": "a\r\nb"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha\nK", rec.Name)
	assert.Equal(t, "99\r", rec.Mobile)
	assert.Equal(t, "Go\n", rec.Course)
	assert.Equal(t, "a\nb", rec.Extra["note"])

	all, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rec, all[0])
}

func TestFoldCRLF(t *testing.T) {
	for in, want := range map[string]string{
		"":         "",
		"plain":    "plain",
		"a\r\nb":   "a\nb",
		"a\r\r\nb": "a\nb",
		"a\rb\n":   "a\rb\n",
		"\r\n\r\n": "\n\n",
	} {
		assert.Equal(t, want, foldCRLF(in), "%q", in)
	}
}
