package share

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
)

func TestTwilioSend(t *testing.T) {
	var got struct {
		path, user, pass, from, to, body string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		got.from, got.to, got.body = r.PostForm.Get("From"), r.PostForm.Get("To"), r.PostForm.Get("Body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","date_created":"Tue, 05 Mar 2024 10:00:00 +0000"}`))
	}))
	defer srv.Close()

	tw := &Twilio{AccountSID: "AC1", AuthToken: "tok", From: "+100", BaseURL: srv.URL, Client: srv.Client()}
	at, err := tw.Send(context.Background(), "+200", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", got.path)
	assert.Equal(t, "AC1", got.user)
	assert.Equal(t, "tok", got.pass)
	assert.Equal(t, "+100", got.from)
	assert.Equal(t, "+200", got.to)
	assert.Equal(t, "hello", got.body)
	assert.True(t, at.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
}

func TestTwilioError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	}))
	defer srv.Close()

	tw := &Twilio{AccountSID: "AC1", BaseURL: srv.URL, Client: srv.Client()}
	_, err := tw.Send(context.Background(), "bad", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
}

type memNotes map[string]models.Note

func (m memNotes) Get(_ context.Context, id string) (models.Note, error) {
	n, ok := m[id]
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	return n, nil
}

type equalVerifier struct{}

func (equalVerifier) Unlock(_ context.Context, n models.Note, c string) (bool, error) {
	return !n.Locked() || n.Password == c, nil
}

type captureSender struct {
	to, body string
	err      error
}

func (c *captureSender) Send(_ context.Context, to, body string) (time.Time, error) {
	c.to, c.body = to, body
	return time.Unix(0, 0), c.err
}

func TestShare(t *testing.T) {
	notes := memNotes{
		"open":   {ID: "open", Title: "t", Text: `a\nb`},
		"locked": {ID: "locked", Title: "s", Text: "hidden", Password: "p"},
	}
	sender := &captureSender{}
	s := NewSharer(notes, lockgate.New(equalVerifier{}), sender, "+200", time.UTC, nil)
	ctx := context.Background()

	_, err := s.Share(ctx, "open", lockgate.Deny)
	require.NoError(t, err)
	assert.Equal(t, "+200", sender.to)
	assert.Contains(t, sender.body, "a\nb")

	sender.body = ""
	_, err = s.Share(ctx, "locked", lockgate.Deny)
	assert.ErrorIs(t, err, apperr.ErrLocked)
	assert.Empty(t, sender.body)

	_, err = s.Share(ctx, "locked", lockgate.Once("p"))
	require.NoError(t, err)
	assert.Contains(t, sender.body, "hidden")

	_, err = s.Share(ctx, "ghost", lockgate.Deny)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sender.err = errors.New("down")
	_, err = s.Share(ctx, "open", lockgate.Deny)
	assert.ErrorIs(t, err, sender.err)
}

func TestShareDisabled(t *testing.T) {
	s := NewSharer(memNotes{}, lockgate.New(equalVerifier{}), nil, "", nil, nil)
	assert.False(t, s.Enabled())
	_, err := s.Share(context.Background(), "x", lockgate.Deny)
	assert.ErrorIs(t, err, ErrDisabled)
}
