package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/coursework/core"
)

// sender is the part of *sendgrid.Client used to deliver mails.
type sender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridService struct {
	client     sender
	appName    string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(sendgrid.NewSendClient(conf.SendgridApiKey), conf, logger)
}

func newSendgridService(client sender, conf *core.Config, logger core.Logger) *sendgridService {
	from := conf.DefaultFrom()
	return &sendgridService{
		client:     client,
		appName:    conf.AppName,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

// NewService picks SendGrid when an API key is configured, the console otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.SendgridApiKey == "" || conf.TestMode {
		return NewConsoleService(conf, logger)
	}
	return NewSendgridService(conf, logger)
}

// SendMessages renders and delivers each message in its own goroutine.
func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(svc.appName); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
				return
			}
			if msg.HasRecipients() && msg.HasContent() {
				svc.send(*msg)
			}
		}()
	}
}

func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	toSG := func(addrs []mail.Address) []*sgmail.Email {
		emails := make([]*sgmail.Email, 0, len(addrs))
		for _, addr := range addrs {
			emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
		}
		return emails
	}

	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(toSG(msg.To)...)
	p.AddCCs(toSG(msg.Cc)...)
	p.AddBCCs(toSG(msg.Bcc)...)

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc sendgridService) send(msg core.EmailMessage) {
	fields := map[string]interface{}{"template": msg.TemplateName, "recipients": len(msg.To)}

	res, err := svc.client.Send(svc.prepare(msg))
	switch {
	case err != nil:
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err, fields)
	case res.StatusCode >= http.StatusBadRequest:
		fields["status"] = res.StatusCode
		fields["body"] = res.Body
		svc.logger.Error("sending email: rejected by sendgrid", fields)
	default:
		svc.logger.Debug("email sent", fields)
	}
}
