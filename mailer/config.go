package mailer

// Config holds email delivery configuration. The Postmark tokens are
// optional so development environments can run with the file backed
// sender instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@gemstone.example"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@gemstone.example"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
