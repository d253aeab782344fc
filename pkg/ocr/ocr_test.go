package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text  string
	err   error
	panic bool
	got   Input
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(_ context.Context, in Input) (string, error) {
	s.got = in
	if s.panic {
		panic("boom")
	}
	return s.text, s.err
}

func TestExtractorStatuses(t *testing.T) {
	ctx := context.Background()

	eng := &stubEngine{text: "Jane Doe\n"}
	res := NewExtractor(eng).Extract(ctx, "/cards/a.JPG")
	assert.Equal(t, StatusOK, res.Status)
	assert.True(t, res.OK())
	assert.Equal(t, "Jane Doe\n", res.Text)
	assert.NoError(t, res.Err)
	assert.Equal(t, ImageFormatJPEG, eng.got.Format)
	assert.Equal(t, []string{"eng"}, eng.got.Languages)
	assert.Equal(t, ModeGray, eng.got.Mode)

	res = NewExtractor(&stubEngine{text: " \n\t"}).Extract(ctx, "b.png")
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Empty(t, res.Text)
	assert.Equal(t, ErrEmptyText.Error(), res.Reason())

	res = NewExtractor(&stubEngine{err: errors.New("tesseract exploded")}).Extract(ctx, "c.png")
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrEngine)
	assert.Contains(t, res.Reason(), "tesseract exploded")

	unreadable := &stubEngine{err: ErrUnreadableImage}
	res = NewExtractor(unreadable).Extract(ctx, "d.png")
	assert.ErrorIs(t, res.Err, ErrUnreadableImage)
	assert.NotErrorIs(t, res.Err, ErrEngine)
}

func TestExtractorRecoversPanics(t *testing.T) {
	res := NewExtractor(&stubEngine{panic: true}).Extract(context.Background(), "e.png")
	require.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrEngine)
}

func TestExtractorLateTextAfterDeadlineFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res := NewExtractor(&stubEngine{text: "Jane Doe\n"}).Extract(ctx, "late.png")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.Text)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.ErrorIs(t, res.Err, ErrEngine)
}

func TestExtractorWithoutEngine(t *testing.T) {
	res := (&Extractor{}).Extract(context.Background(), "f.png")
	assert.Equal(t, StatusFailed, res.Status)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, ImageFormatPNG, FormatFromPath("x.PNG"))
	assert.Equal(t, ImageFormatJPEG, FormatFromPath("x.jpeg"))
	assert.Equal(t, ImageFormat(""), FormatFromPath("x.gif"))
}
