package service

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/model"
)

func TestStatementEmail(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	subject, body := statementEmail(&model.Upload{
		FileName: "<march>.csv",
		Status:   model.UploadStatusProcessed,
		Imported: 42,
		Skipped:  3,
	}, at)
	if !strings.Contains(subject, "imported") {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"&lt;march&gt;.csv", "<strong>42</strong>", "<strong>3</strong>", "05.03.2024 14:30"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	reason := "statement contains no usable rows"
	subject, body = statementEmail(&model.Upload{
		FileName: "bad.csv",
		Status:   model.UploadStatusFailed,
		Error:    &reason,
	}, at)
	if !strings.Contains(subject, "could not be imported") || !strings.Contains(body, reason) {
		t.Errorf("failure email = %q / %q", subject, body)
	}
}

func TestEmailSenderDisabledIsNoop(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	es := NewEmailSender(&config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1}, logger)
	if err := es.SendStatementProcessed("a@b.co", &model.Upload{}); err != nil {
		t.Errorf("disabled sender returned %v", err)
	}
}
