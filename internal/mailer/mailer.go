package mailer

import "embed"

//go:embed "templates"
var templateFS embed.FS

var (
	OrderConfirmationEmailTemplate = "order_confirmation.tmpl"
)

type Client interface {
	Send(option *MailOption, data any) error
}
