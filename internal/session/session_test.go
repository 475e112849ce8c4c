package session

import (
	"testing"
	"time"

	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDocument(s *Session, id string) {
	fs := fields.Fields{
		{Label: "File Number", Key: fields.KeyFileNumber, Value: "10216", Editable: true},
		{Label: "Bank Code", Key: fields.KeyBankCode, Value: "bL", Editable: false},
		{Label: "Remarks", Key: fields.KeyRemarks, Value: "pending", Editable: true},
	}
	s.OpenDocument(&Document{ID: id, FileName: "x.docx", Fields: fs, Originals: fs.Snapshot()})
}

func TestManager_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, nil).WithClock(func() time.Time { return now })

	s := m.Create(models.User{Username: "asha"})
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(30 * time.Minute)
	_, err = m.Get(s.ID)
	require.NoError(t, err, "use refreshes the idle timer")

	now = now.Add(61 * time.Minute)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, nil).WithClock(func() time.Time { return now })

	stale := m.Create(models.User{Username: "a"})
	now = now.Add(50 * time.Minute)
	fresh := m.Create(models.User{Username: "b"})
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSession_Fields(t *testing.T) {
	s := NewManager(0, nil).Create(models.User{Username: "asha"})

	_, err := s.SetField(fields.KeyRemarks, "x")
	assert.ErrorIs(t, err, ErrNoDocument)

	openTestDocument(s, "doc-1")
	f, err := s.SetField(fields.KeyRemarks, "Good condition")
	require.NoError(t, err)
	assert.Equal(t, "Good condition", f.Value)

	_, err = s.SetField(fields.KeyBankCode, "SH")
	assert.ErrorIs(t, err, fields.ErrReadOnlyField)

	cs, err := s.Changes()
	require.NoError(t, err)
	c, ok := cs.Get(fields.KeyRemarks)
	require.True(t, ok)
	assert.Equal(t, fields.Change{Old: "pending", New: "Good condition"}, c)

	// Document returns a copy.
	doc, err := s.Document()
	require.NoError(t, err)
	doc.Fields.Assign(fields.KeyRemarks, "tampered")
	doc, _ = s.Document()
	assert.Equal(t, "Good condition", doc.Fields.Value(fields.KeyRemarks))
}

func TestSession_SelectBankFollowsIntoDocument(t *testing.T) {
	s := NewManager(0, nil).Create(models.User{Username: "asha"})
	openTestDocument(s, "doc-1")

	s.SelectBank(models.Bank{Code: "HDFC", Name: "HDFC Bank"})
	assert.Equal(t, "HDFC", s.Bank().Code)

	doc, err := s.Document()
	require.NoError(t, err)
	assert.Equal(t, "HDFC", doc.Fields.Value(fields.KeyBankCode))
	assert.Equal(t, "bL", doc.Originals[fields.KeyBankCode])
}

func TestSession_ApplyUpdate(t *testing.T) {
	s := NewManager(0, nil).Create(models.User{Username: "asha"})
	openTestDocument(s, "doc-1")

	assert.False(t, s.ApplyUpdate("doc-0", fields.Update{Key: fields.KeyFileNumber, Value: "10301"}), "stale document")
	assert.False(t, s.ApplyUpdate("doc-1", fields.Update{Key: fields.KeyFileNumber, Err: assert.AnError}))
	assert.True(t, s.ApplyUpdate("doc-1", fields.Update{Key: fields.KeyFileNumber, Value: "10301"}))

	cs, err := s.Changes()
	require.NoError(t, err)
	c, ok := cs.Get(fields.KeyFileNumber)
	require.True(t, ok)
	assert.Equal(t, fields.Change{Old: "10216", New: "10301"}, c)
}

func TestSession_MarkSaved(t *testing.T) {
	s := NewManager(0, nil).Create(models.User{Username: "asha"})
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.False(t, s.MarkSaved("doc-1", "x", at))

	openTestDocument(s, "doc-1")
	assert.False(t, s.MarkSaved("doc-0", "x", at), "stale document")
	require.True(t, s.MarkSaved("doc-1", "valuations/10216/s/documents/x.docx", at))

	doc, err := s.Document()
	require.NoError(t, err)
	assert.Equal(t, "valuations/10216/s/documents/x.docx", doc.SavedAs)
	require.NotNil(t, doc.SavedAt)
	assert.Equal(t, at, *doc.SavedAt)
}

func TestSession_Photos(t *testing.T) {
	s := NewManager(0, nil).Create(models.User{Username: "asha"})
	assert.ErrorIs(t, s.AddPhoto(models.PhotoMetadata{ID: "p1"}), ErrNoDocument)

	openTestDocument(s, "doc-1")
	require.NoError(t, s.AddPhoto(models.PhotoMetadata{ID: "p1"}))
	require.NoError(t, s.AddPhoto(models.PhotoMetadata{ID: "p2"}))
	require.NoError(t, s.AddPhoto(models.PhotoMetadata{ID: "p3"}))

	removed, err := s.RemovePhoto("p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", removed.ID)
	_, err = s.RemovePhoto("p2")
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	photos := s.Photos()
	require.Len(t, photos, 2)
	assert.Equal(t, "p1", photos[0].ID)
	assert.Equal(t, "p3", photos[1].ID)

	openTestDocument(s, "doc-2")
	assert.Empty(t, s.Photos(), "photos belong to the previous document")
	assert.Equal(t, s.ID+":doc-2", s.ViewKey())

	doc, photos := s.CloseDocument()
	assert.Equal(t, "doc-2", doc.ID)
	assert.Empty(t, photos)
	_, err = s.Document()
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestSweeper_StartStop(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	m := NewManager(time.Minute, nil).WithClock(func() time.Time { return now })
	m.Create(models.User{Username: "a"})
	now = now.Add(time.Hour)

	sw := NewSweeper(m, 5*time.Millisecond, nil)
	sw.Start()
	defer sw.Stop()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}
