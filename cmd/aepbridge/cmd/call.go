package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/solatis/aepbridge/internal/core/api"
	"github.com/solatis/aepbridge/internal/core/auth"
	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

var (
	callAddr    string
	callAPIKey  string
	callTimeout time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <module> <method> [json-args]",
	Short: "Invoke a bridge method on a running server",
	Long: `Invokes module.method on a running bridge and prints the {result, callId}
response as JSON. json-args is a JSON array, e.g. '["optedin"]'.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var callArgs []wire.Value
		if len(args) == 3 {
			var err error
			if callArgs, err = parseArgs(args[2]); err != nil {
				return err
			}
		}

		key := callAPIKey
		if key == "" {
			key = os.Getenv(config.EnvPrefix + "_API_KEY")
		}

		conn, err := grpc.NewClient(callAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", callAddr, err)
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
		defer cancel()
		if key != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, auth.MetadataKey, key)
		}

		resp, err := api.NewBridgeClient(conn).Invoke(ctx, api.NewRequest(args[0], args[1], callArgs...))
		if err != nil {
			return err
		}
		out, err := encodeOutput(wire.FromStruct(resp), "json")
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// parseArgs decodes a JSON array of call arguments.
func parseArgs(s string) ([]wire.Value, error) {
	d, err := wire.DecodeJSON([]byte(`{"args":` + s + `}`))
	if err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON array", types.ErrInvalidArgument)
	}
	list, ok := d.Array("args")
	if !ok {
		return nil, fmt.Errorf("%w: arguments must be a JSON array", types.ErrInvalidArgument)
	}
	return list, nil
}

func init() {
	callCmd.Flags().StringVar(&callAddr, "addr", "localhost:50061", "bridge server address")
	callCmd.Flags().StringVar(&callAPIKey, "api-key", "", "API key (defaults to $"+config.EnvPrefix+"_API_KEY)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 30*time.Second, "call timeout")
	rootCmd.AddCommand(callCmd)
}
