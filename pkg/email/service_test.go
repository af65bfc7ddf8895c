package email

import (
	"context"
	"strings"
	"testing"

	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestTrimString(t *testing.T) {
	t.Run("TrimsSurroundingWhitespace", func(t *testing.T) {
		assert.Equal(t, "Hello World", trimString("  Hello World\t "))
	})

	t.Run("CollapsesLinesIntoASingleLine", func(t *testing.T) {
		assert.Equal(t, "Hello World", trimString("Hello\nWorld"))
	})

	t.Run("DropsBlankLines", func(t *testing.T) {
		assert.Equal(t, "Hello World", trimString("Hello\n\n  \nWorld\n"))
	})

	t.Run("TrimsEveryLine", func(t *testing.T) {
		assert.Equal(t, "Hello World", trimString("  Hello  \r\n  World  "))
	})

	t.Run("EmptyStringStaysEmpty", func(t *testing.T) {
		assert.Equal(t, "", trimString("\n \n\t\n"))
	})
}

func TestNormalizeSubject(t *testing.T) {
	t.Run("KeepsShortSubjects", func(t *testing.T) {
		assert.Equal(t, "Hello", normalizeSubject("Hello"))
	})

	t.Run("CollapsesMultilineSubjects", func(t *testing.T) {
		assert.Equal(t, "Hello World", normalizeSubject("Hello\n\nWorld"))
	})

	t.Run("TruncatesLongSubjects", func(t *testing.T) {
		subject := normalizeSubject(strings.Repeat("a", 100))

		assert.Equal(t, strings.Repeat("a", 75)+"...", subject)
		assert.Len(t, []rune(subject), model.MaxSubjectLength)
	})

	t.Run("TruncatesByRunesNotBytes", func(t *testing.T) {
		subject := normalizeSubject(strings.Repeat("é", 100))

		assert.Equal(t, strings.Repeat("é", 75)+"...", subject)
		assert.Len(t, []rune(subject), model.MaxSubjectLength)
	})
}

func TestPrepareRequiresStatusNew(t *testing.T) {
	service := Service{}
	message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusReady}

	err := service.Prepare(context.Background(), message)

	assert.True(t, errdef.IsConflict(err), "should be a conflict error")
	assert.ErrorContains(t, err, "not status=new")
}

func TestAttach(t *testing.T) {
	service := Service{}

	t.Run("RequiresStatusReady", func(t *testing.T) {
		message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusNew}

		_, err := service.Attach(context.Background(), message, "report.pdf", "application/pdf", strings.NewReader("%PDF"))

		assert.True(t, errdef.IsConflict(err), "should be a conflict error")
		assert.ErrorContains(t, err, "not status=ready")
	})

	t.Run("RejectsMimetypeNotMatchingTheFilename", func(t *testing.T) {
		message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusReady}

		_, err := service.Attach(context.Background(), message, "report.pdf", "text/plain", strings.NewReader("%PDF"))

		assert.True(t, errdef.IsBadRequest(err), "should be a bad request error")
		assert.ErrorContains(t, err, "filename report.pdf does not match mimetype text/plain")
	})

	t.Run("RejectsUnknownFilenameExtensions", func(t *testing.T) {
		message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusReady}

		_, err := service.Attach(context.Background(), message, "report.abc123", "application/pdf", strings.NewReader("%PDF"))

		assert.True(t, errdef.IsBadRequest(err), "should be a bad request error")
		assert.ErrorContains(t, err, "does not match mimetype")
	})
}

func TestSendRequiresStatusReady(t *testing.T) {
	service := Service{}
	message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusSent}

	err := service.Send(context.Background(), message)

	assert.True(t, errdef.IsConflict(err), "should be a conflict error")
	assert.ErrorContains(t, err, "was it queued?")
}

func TestQueuePreparesOnlyMessagesInStatusNew(t *testing.T) {
	service := Service{}
	message := &model.EmailMessage{ID: 1, Status: model.EmailMessageStatusSent}

	_, err := service.Queue(context.Background(), message, CooldownOptions{})

	assert.True(t, errdef.IsConflict(err), "should be a conflict error")
	assert.ErrorContains(t, err, "not status=new")
}
