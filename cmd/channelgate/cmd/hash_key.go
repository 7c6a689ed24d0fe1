package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/spf13/cobra"
)

var hashKeyArgon bool

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [api-key]",
	Short: "Generate a hash for an admin API key",
	Long: `Generate a hash of an admin API key for use in config.

By default the output is "sha256:<hex>", usable directly in the
admin.api_keys.key_hash field. With --argon2id the output is an
argon2id PHC string instead.

Example:
  channelgate hash-key "my-secret-api-key"
  # Output: sha256:7d5e8c...

Security note: The key will appear in shell history.
Consider clearing history after use or using an environment variable:
  channelgate hash-key "$MY_API_KEY"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if hashKeyArgon {
			hash, err := argon2id.CreateHash(key, argon2id.DefaultParams)
			if err != nil {
				return fmt.Errorf("failed to hash key: %w", err)
			}
			fmt.Println(hash)
			return nil
		}
		hash := sha256.Sum256([]byte(key))
		fmt.Printf("sha256:%s\n", hex.EncodeToString(hash[:]))
		return nil
	},
}

func init() {
	hashKeyCmd.Flags().BoolVar(&hashKeyArgon, "argon2id", false, "Emit an argon2id hash instead of sha256")
	rootCmd.AddCommand(hashKeyCmd)
}
