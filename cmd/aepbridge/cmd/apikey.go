package cmd

import (
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/solatis/aepbridge/internal/core/auth"
	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/core/db"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage bridge API keys",
}

var (
	keyAppID    string
	keyName     string
	keySecretID string
)

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key and print it once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, queries, _, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		secretID, secret, err := pickSecret(secrets, keySecretID)
		if err != nil {
			return err
		}

		key, hash, err := auth.GenerateAPIKey(secretID, secret)
		if err != nil {
			return err
		}
		rec := db.APIKey{
			APIKeyID:  uuid.NewString(),
			AppID:     keyAppID,
			Name:      keyName,
			SecretID:  secretID,
			CreatedAt: time.Now(),
		}
		if err := queries.InsertAPIKey(cmd.Context(), rec, hash); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "created key %s for app %s; it will not be shown again\n", rec.APIKeyID, rec.AppID)
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, queries, _, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		keys, err := queries.ListAPIKeys(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAPP\tNAME\tCREATED\tLAST USED\tREVOKED")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", k.APIKeyID, k.AppID, k.Name,
				k.CreatedAt.UTC().Format(time.RFC3339), formatNullTime(k.LastUsedAt),
				formatNullTime(k.RevokedAt))
		}
		return w.Flush()
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, _, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		revoked, err := queries.RevokeAPIKey(cmd.Context(), args[0], time.Now())
		if err != nil {
			return err
		}
		if !revoked {
			return fmt.Errorf("api key %s not found or already revoked", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
		return nil
	},
}

func init() {
	apikeyCreateCmd.Flags().StringVar(&keyAppID, "app", "", "application ID the key authenticates as")
	apikeyCreateCmd.Flags().StringVar(&keyName, "name", "", "human-readable key name")
	apikeyCreateCmd.Flags().StringVar(&keySecretID, "secret-id", "", "HMAC secret to sign with (required when several are configured)")
	_ = apikeyCreateCmd.MarkFlagRequired("app")

	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyListCmd, apikeyRevokeCmd)
	rootCmd.AddCommand(apikeyCmd)
}

// pickSecret selects the named secret, or the only one configured.
func pickSecret(secrets map[string][]byte, id string) (string, []byte, error) {
	if len(secrets) == 0 {
		return "", nil, fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET)", config.EnvPrefix)
	}
	if id != "" {
		secret, ok := secrets[id]
		if !ok {
			return "", nil, fmt.Errorf("secret %s is not configured", id)
		}
		return id, secret, nil
	}
	if len(secrets) > 1 {
		return "", nil, fmt.Errorf("%d secrets configured; choose one with --secret-id", len(secrets))
	}
	for only := range secrets {
		id = only
	}
	return id, secrets[id], nil
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return "-"
	}
	return t.Time.UTC().Format(time.RFC3339)
}
