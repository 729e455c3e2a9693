package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/pflag"

	"github.com/salmonumbrella/harp-cli/internal/output"
)

const testDeviceSchema = `{
  "allOf": [
    {
      "properties": {
        "device": {"type": "string"},
        "whoAmI": {"type": "integer"},
        "firmwareVersion": {"type": "string"},
        "registers": {"type": "object"}
      }
    }
  ]
}`

const testRegisterSchema = `
definitions:
  register:
    properties:
      address: {type: integer}
      type: {type: string}
      maxValue: {type: number}
`

const testDocument = `device: Behavior
whoAmI: 1216
firmwareVersion: "0.2"
registers:
  DigitalInputState:
    address: 32
    type: U8
  OutputSet:
    address: 34
    maxValue: 255
bitMasks:
  DigitalInputs:
    description: Digital inputs.
    bits:
      DI0: 0x1
      DI1: 0x2
groupMasks:
  Mode:
    values:
      Off: 0
      On: 1
`

type fixtures struct {
	dir            string
	config         string
	deviceSchema   string
	registerSchema string
	document       string
}

// writeFixtures writes an empty config, both schemas and a device document
// into a temp dir.
func writeFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	f := fixtures{
		dir:            dir,
		config:         filepath.Join(dir, "config.yaml"),
		deviceSchema:   filepath.Join(dir, "device.json"),
		registerSchema: filepath.Join(dir, "registers.yaml"),
		document:       filepath.Join(dir, "device.yml"),
	}
	writeFile(t, f.config, "")
	writeFile(t, f.deviceSchema, testDeviceSchema)
	writeFile(t, f.registerSchema, testRegisterSchema)
	writeFile(t, f.document, testDocument)
	return f
}

func (f fixtures) schemaArgs() []string {
	return []string{"--config", f.config, "--device-schema", f.deviceSchema, "--register-schema", f.registerSchema}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
// Errors are printed the way Execute prints them.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	restore := snapshotCLIState()
	t.Cleanup(restore)

	if stdin == nil {
		stdin = &bytes.Buffer{}
	}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(stdin)
	rootCmd.SetContext(withIO(context.Background(), stdin, out, errBuf))
	rootCmd.SetArgs(args)
	resetFlags(rootCmd)
	resetFlags(previewCmd)

	err := Execute()
	return out.String(), errBuf.String(), err
}

func withTestContext(t *testing.T, format output.Format) (*bytes.Buffer, *bytes.Buffer, func()) {
	t.Helper()
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	ctx := withIO(context.Background(), in, out, errBuf)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithQuiet(ctx, true)
	rootCmd.SetContext(ctx)

	prevType := outputType
	prevFmt := outputFmt
	outputType = format
	outputFmt = string(format)

	return out, errBuf, func() {
		outputType = prevType
		outputFmt = prevFmt
		rootCmd.SetContext(context.Background())
	}
}

func snapshotCLIState() func() {
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevDeviceSchema := deviceSchema
	prevRegisterSchema := registerSchema
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevWatch := previewWatch
	prevActiveConfig := activeConfig

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		deviceSchema = prevDeviceSchema
		registerSchema = prevRegisterSchema
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		previewWatch = prevWatch
		activeConfig = prevActiveConfig

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		resetFlags(previewCmd)
	}
}

// resetFlags returns changed flags to their defaults so consecutive
// executions in one test do not see each other's flags.
func resetFlags(cmdFlagSet interface {
	Flags() *pflag.FlagSet
	PersistentFlags() *pflag.FlagSet
	InheritedFlags() *pflag.FlagSet
},
) {
	if cmdFlagSet == nil {
		return
	}
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmdFlagSet.Flags().VisitAll(reset)
	cmdFlagSet.PersistentFlags().VisitAll(reset)
	cmdFlagSet.InheritedFlags().VisitAll(reset)
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling
// reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
