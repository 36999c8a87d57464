package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/sanitize"
	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

type convertOptions struct {
	inputFormat  string
	outputFormat string
	target       string
	lenient      bool
	path         string
}

var convertOpts convertOptions

// converter normalizes one host dictionary.
type converter func(in wire.Dict, opts convertOptions) (wire.Dict, error)

var converters = map[string]converter{
	"event":            roundTrip("Event", bridge.EventFromDict, bridge.DictFromEvent),
	"experience-event": roundTrip("ExperienceEvent", bridge.ExperienceEventFromDict, bridge.DictFromExperienceEvent),
	"edge-handle":      roundTrip("EdgeEventHandle", bridge.EdgeEventHandleFromDict, bridge.DictFromEdgeEventHandle),
	"identity-item":    roundTrip("IdentityItem", bridge.IdentityItemFromDict, bridge.DictFromIdentityItem),
	"visitor-id":       roundTrip("VisitorID", bridge.VisitorIDFromDict, bridge.DictFromVisitorID),
	"location":         roundTrip("Location", bridge.LocationFromDict, bridge.DictFromLocation),
	"poi":              roundTrip("POI", bridge.POIFromDict, bridge.DictFromPOI),
	"message":          roundTrip("Message", bridge.MessageFromDict, bridge.DictFromMessage),
	"offer":            roundTrip("Offer", ignoreSkipped(bridge.OfferFromDict), bridge.DictFromOffer),
	"proposition":      roundTrip("Proposition", ignoreSkipped(bridge.OptimizePropositionFromDict), bridge.DictFromOptimizeProposition),
	"decision-scope":   convertDecisionScope,
	"identity-map":     convertIdentityMap,
	"consents":         convertConsents,
	"sanitize":         convertSanitize,
	"lookup":           convertLookup,
}

func roundTrip[T any](name string, from func(wire.Dict) (T, bool), to func(T) (wire.Dict, bool)) converter {
	return func(in wire.Dict, _ convertOptions) (wire.Dict, error) {
		native, ok := from(in)
		if !ok {
			return nil, fmt.Errorf("%w: failed to convert map to %s", types.ErrConversionFailed, name)
		}
		out, ok := to(native)
		if !ok {
			return nil, fmt.Errorf("%w: failed to convert %s to map", types.ErrConversionFailed, name)
		}
		return out, nil
	}
}

// ignoreSkipped adapts a lenient converter; skipped entries are already
// absent from its result.
func ignoreSkipped[T any](from func(wire.Dict) (T, bridge.Skipped, bool)) func(wire.Dict) (T, bool) {
	return func(d wire.Dict) (T, bool) {
		v, _, ok := from(d)
		return v, ok
	}
}

// convertDecisionScope returns {name}, encoding activity descriptors.
func convertDecisionScope(in wire.Dict, _ convertOptions) (wire.Dict, error) {
	scope, ok := bridge.DecisionScopeFromDict(in)
	if !ok {
		return nil, fmt.Errorf("%w: failed to convert map to DecisionScope", types.ErrConversionFailed)
	}
	return wire.Dict{bridge.KeyName: wire.String(scope.Name)}, nil
}

// convertIdentityMap reads and writes the {items: {namespace: [...]}} envelope.
func convertIdentityMap(in wire.Dict, _ convertOptions) (wire.Dict, error) {
	m, ok := bridge.IdentityMapFromDict(in)
	if !ok {
		return nil, fmt.Errorf("%w: failed to convert map to IdentityMap", types.ErrConversionFailed)
	}
	out, ok := bridge.DictFromIdentityMap(m)
	if !ok {
		return nil, fmt.Errorf("%w: failed to convert IdentityMap to map", types.ErrConversionFailed)
	}
	return bridge.IdentityMapInput(out), nil
}

func convertConsents(in wire.Dict, _ convertOptions) (wire.Dict, error) {
	return bridge.DictFromConsents(bridge.ConsentsFromDict(in)), nil
}

// convertSanitize returns {dict, dropped}.
func convertSanitize(in wire.Dict, opts convertOptions) (wire.Dict, error) {
	kind, ok := wire.ParseKind(opts.target)
	if !ok || kind == wire.KindNull {
		return nil, fmt.Errorf("%w: --type must be one of %s", types.ErrInvalidArgument, strings.Join(wire.KindNames()[1:], ", "))
	}
	res := sanitize.Filter(in, kind, sanitize.Options{Lenient: opts.lenient})

	dropped := make([]wire.Value, len(res.Dropped))
	for i, k := range res.Dropped {
		dropped[i] = wire.String(k)
	}
	return wire.Dict{
		"dict":    wire.Map(res.Dict),
		"dropped": wire.Array(dropped...),
	}, nil
}

// convertLookup returns {path, value} for the first match of --path.
func convertLookup(in wire.Dict, opts convertOptions) (wire.Dict, error) {
	if opts.path == "" {
		return nil, fmt.Errorf("%w: --path is required", types.ErrInvalidArgument)
	}
	res, err := wire.LookupString(in, opts.path)
	if err != nil {
		return nil, err
	}
	return wire.Dict{
		"path":  wire.String(res.ResolvedPath.String()),
		"value": res.Value,
	}, nil
}

func decodeInput(data []byte, format string) (wire.Dict, error) {
	switch format {
	case "json":
		return wire.DecodeJSON(data)
	case "jsonc":
		return wire.DecodeJSONC(data)
	case "cbor":
		return wire.DecodeCBOR(data)
	default:
		return nil, fmt.Errorf("%w: unknown input format %q (want json, jsonc or cbor)", types.ErrInvalidArgument, format)
	}
}

func encodeOutput(d wire.Dict, format string) ([]byte, error) {
	switch format {
	case "json":
		out, err := wire.EncodeJSON(d)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return wire.EncodeYAML(d)
	case "cbor":
		return wire.EncodeCBOR(d)
	default:
		return nil, fmt.Errorf("%w: unknown output format %q (want json, yaml or cbor)", types.ErrInvalidArgument, format)
	}
}

func runConvert(kind string, in io.Reader, out io.Writer, opts convertOptions) error {
	conv, ok := converters[kind]
	if !ok {
		return fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(converterKinds(), ", "))
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	d, err := decodeInput(data, opts.inputFormat)
	if err != nil {
		return err
	}
	result, err := conv(d, opts)
	if err != nil {
		return err
	}
	encoded, err := encodeOutput(result, opts.outputFormat)
	if err != nil {
		return err
	}
	_, err = out.Write(encoded)
	return err
}

func converterKinds() []string {
	kinds := make([]string, 0, len(converters))
	for k := range converters {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

var convertCmd = &cobra.Command{
	Use:   "convert <kind> [file]",
	Short: "Normalize a host dictionary through a bridge converter",
	Long: `Reads a dictionary from file (or stdin), converts it to the native object
and back, and prints the result. Kinds: ` + strings.Join(converterKinds(), ", ") + `.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 2 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return runConvert(args[0], in, cmd.OutOrStdout(), convertOpts)
	},
}

var enumCmd = &cobra.Command{
	Use:   "enum <domain> [value...]",
	Short: "Normalize enum strings, or list a domain's wire strings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnum(cmd.OutOrStdout(), args[0], args[1:])
	},
}

func runEnum(out io.Writer, domain string, values []string) error {
	d, ok := types.LookupEnumDomain(domain)
	if !ok {
		return fmt.Errorf("unknown enum domain %q (want one of %s)", domain, strings.Join(types.EnumDomainNames(), ", "))
	}
	if len(values) == 0 {
		for _, w := range d.Wires() {
			fmt.Fprintln(out, w)
		}
		return nil
	}
	for _, v := range values {
		canonical, recognized := d.Normalize(v)
		suffix := ""
		if !recognized {
			suffix = " (default)"
		}
		fmt.Fprintf(out, "%s -> %s%s\n", v, canonical, suffix)
	}
	return nil
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertOpts.inputFormat, "input-format", "json", "input encoding (json, jsonc, cbor)")
	f.StringVar(&convertOpts.outputFormat, "output-format", "json", "output encoding (json, yaml, cbor)")
	f.StringVar(&convertOpts.target, "type", "string", "target value kind for sanitize")
	f.BoolVar(&convertOpts.lenient, "lenient", false, "sanitize: keep values that coerce to the target kind")
	f.StringVar(&convertOpts.path, "path", "", "lookup: field path, e.g. xdm.items[*].id")

	rootCmd.AddCommand(convertCmd, enumCmd)
}
