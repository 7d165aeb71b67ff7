package mail

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	from   string
	to     []string
	body   bytes.Buffer
	closed bool
}

func (r *recordingSender) Send(from string, to []string, msg io.WriterTo) error {
	r.from = from
	r.to = to
	_, err := msg.WriteTo(&r.body)
	return err
}

func (r *recordingSender) Close() error {
	r.closed = true
	return nil
}

type fakeDialer struct {
	sender *recordingSender
	err    error
}

func (f fakeDialer) Dial() (gomail.SendCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sender, nil
}

func TestSMTPMailer_Send(t *testing.T) {
	rec := &recordingSender{}
	m := NewSMTPMailer(fakeDialer{sender: rec}, "crm@telfera.kz")

	err := m.Send([]string{"sales@telfera.kz"}, "Новая заявка", "<b>SHA8</b>")
	require.NoError(t, err)

	assert.Equal(t, "crm@telfera.kz", rec.from)
	assert.Equal(t, []string{"sales@telfera.kz"}, rec.to)
	assert.Contains(t, rec.body.String(), "text/html")
	assert.True(t, rec.closed)
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(fakeDialer{err: errors.New("connection refused")}, "crm@telfera.kz")

	assert.Error(t, m.Send(nil, "s", "b"))
	assert.ErrorContains(t, m.Send([]string{"a@b.kz"}, "s", "b"), "connection refused")
}
