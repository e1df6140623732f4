package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/relloyd/tableload/logger"
	"github.com/wneessen/go-mail"
)

func newTestMailNotifier(t *testing.T, sent *[]*mail.Msg, sendErr error) *MailNotifier {
	n, err := NewMailNotifier(logger.NewLogger("tableload", "error", false), MailConfig{From: "etl@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.send = func(ctx context.Context, m *mail.Msg) error {
		*sent = append(*sent, m)
		return sendErr
	}
	return n
}

func TestMailNotifierSendsLogAttachment(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	var sent []*mail.Msg
	n := newTestMailNotifier(t, &sent, nil)

	err := n.Notify(context.Background(), Message{
		Recipients:  []string{"bi@example.com", "ops@example.com"},
		Subject:     "Execution report for job FatoFechamento - DONE",
		Body:        "Loaded 25000 rows",
		Attachments: []Attachment{{Name: "FatoFechamento.log", Content: []byte("level=info msg=done\n")}},
	})
	g.Expect(err).To(gomega.BeNil())
	g.Expect(sent).To(gomega.HaveLen(1))
	buf := &bytes.Buffer{}
	_, err = sent[0].WriteTo(buf)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(buf.String()).To(gomega.ContainSubstring("Subject: Execution report for job FatoFechamento - DONE"))
	g.Expect(buf.String()).To(gomega.ContainSubstring("bi@example.com"))
	g.Expect(buf.String()).To(gomega.ContainSubstring("Loaded 25000 rows"))
	g.Expect(buf.String()).To(gomega.ContainSubstring("FatoFechamento.log"))
}

func TestMailNotifierNeedsRecipients(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	var sent []*mail.Msg
	n := newTestMailNotifier(t, &sent, nil)

	err := n.Notify(context.Background(), Message{Subject: "x"})
	g.Expect(err).To(gomega.HaveOccurred())
	g.Expect(sent).To(gomega.BeEmpty())
}

func TestMailNotifierReportsSendFailure(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	var sent []*mail.Msg
	sendErr := errors.New("exec: \"/usr/sbin/sendmail\": file does not exist")
	n := newTestMailNotifier(t, &sent, sendErr)

	err := n.Notify(context.Background(), Message{Recipients: []string{"bi@example.com"}, Subject: "x"})
	g.Expect(err).To(gomega.HaveOccurred())
	g.Expect(err.Error()).To(gomega.HavePrefix("unable to send notification: "))
	g.Expect(err.Error()).To(gomega.ContainSubstring("sendmail"))
	g.Expect(errors.Cause(err)).To(gomega.BeIdenticalTo(sendErr))
}

func TestNewMailNotifierWithRelay(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	n, err := NewMailNotifier(logger.NewLogger("tableload", "error", false), MailConfig{SmtpHost: "smtp.example.com", SmtpPort: 587, Username: "u", Password: "p"})
	g.Expect(err).To(gomega.BeNil())
	g.Expect(n.cfg.From).To(gomega.Equal("tableload@localhost"))
	g.Expect(n.send).NotTo(gomega.BeNil())
}

func TestLogNotifier(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	n := &LogNotifier{Log: logger.NewLogger("tableload", "error", false)}
	g.Expect(n.Notify(context.Background(), Message{Subject: "s", Body: "b"})).To(gomega.Succeed())
}
