package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cohortlab/ltvcast/internal/cli"
	"github.com/cohortlab/ltvcast/internal/config"
	"github.com/cohortlab/ltvcast/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with Google Sheets for report export.`,
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets report export",
		Long: `Run the Google OAuth2 consent flow in your browser and save a refresh
token, so 'ltvcast report --sheets' can export without further
prompting. Service-account users can skip this and set
sheets.service_account_path instead.`,
		RunE: runAuthSheets,
	}
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("sheets.client_id and sheets.client_secret must be set in the config file or LTVCAST_ environment")
	}

	tokenFile := viper.GetString("sheets.token_file")
	if tokenFile == "" {
		tokenFile = config.DefaultTokenFile()
	} else {
		tokenFile = config.ExpandPath(tokenFile)
	}

	fmt.Println(cli.FormatInfo("Opening the Google consent page in your browser..."))

	token, err := sheets.AuthenticateInteractive(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if token.RefreshToken == "" {
		fmt.Println(cli.FormatWarning("Google returned no refresh token; revoke the app's access and retry to get one"))
	}

	fmt.Println(cli.FormatSuccess("Google Sheets authorized; token saved to " + tokenFile))
	return nil
}
