package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/mail"
)

func newMailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Manage outgoing mail",
	}

	cmd.AddCommand(newMailAuthCmd())
	return cmd
}

func newMailAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize the assistant to send Gmail as you",
		Long: "Runs the OAuth consent flow for the credentials in mail.credentialsFile and\n" +
			"caches the resulting token. Needed once before mail.provider: gmail can send.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Mail.CredentialsFile == "" {
				return errors.New("mail.credentialsFile is not set")
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			tokenFile := cfg.Mail.TokenFile
			if tokenFile == "" {
				tokenFile = paths.GmailToken
			}
			return mail.AuthorizeGmail(cmd.Context(), mail.GmailOptions{
				CredentialsFile: cfg.Mail.CredentialsFile,
				TokenFile:       tokenFile,
				From:            cfg.Mail.From,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
