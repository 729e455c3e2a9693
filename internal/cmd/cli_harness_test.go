package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type previewJSON struct {
	Title  string `json:"title"`
	Device struct {
		Headers []string `json:"headers"`
		Rows    [][]any  `json:"rows"`
	} `json:"device"`
	Registers *struct {
		Headers []string `json:"headers"`
		Rows    [][]any  `json:"rows"`
	} `json:"registers"`
	BitMasks []struct {
		Name  string `json:"name"`
		Table *struct {
			Rows [][]any `json:"rows"`
		} `json:"table"`
		Error string `json:"error"`
	} `json:"bitMasks"`
	GroupMasks []struct {
		Name string `json:"name"`
	} `json:"groupMasks"`
}

func TestCLIHarnessPreviewJSON(t *testing.T) {
	f := writeFixtures(t)

	args := append(f.schemaArgs(), "--output", "json", "preview", f.document)
	stdout, stderr, err := runCLI(t, nil, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != "" {
		t.Errorf("unexpected stderr: %q", stderr)
	}

	var got previewJSON
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("parse output %q: %v", stdout, err)
	}

	if got.Title != "Behavior" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Device.Headers != nil {
		t.Errorf("device table should have no headers, got %v", got.Device.Headers)
	}
	wantDevice := [][]any{{"whoAmI", float64(1216)}, {"firmwareVersion", "0.2"}}
	if !reflect.DeepEqual(got.Device.Rows, wantDevice) {
		t.Errorf("device rows = %v, want %v", got.Device.Rows, wantDevice)
	}

	if got.Registers == nil {
		t.Fatal("expected registers table")
	}
	wantHeaders := []string{"name", "address", "type", "max"}
	if !reflect.DeepEqual(got.Registers.Headers, wantHeaders) {
		t.Errorf("register headers = %v, want %v", got.Registers.Headers, wantHeaders)
	}
	wantRegisters := [][]any{
		{"DigitalInputState", float64(32), "U8", ""},
		{"OutputSet", float64(34), "", float64(255)},
	}
	if !reflect.DeepEqual(got.Registers.Rows, wantRegisters) {
		t.Errorf("register rows = %v, want %v", got.Registers.Rows, wantRegisters)
	}

	if len(got.BitMasks) != 1 || got.BitMasks[0].Table == nil {
		t.Fatalf("expected one decoded bit mask, got %+v", got.BitMasks)
	}
	wantBits := [][]any{{"DI0", "0x1", ""}, {"DI1", "0x2", ""}}
	if !reflect.DeepEqual(got.BitMasks[0].Table.Rows, wantBits) {
		t.Errorf("bit rows = %v, want %v", got.BitMasks[0].Table.Rows, wantBits)
	}
	if len(got.GroupMasks) != 1 || got.GroupMasks[0].Name != "Mode" {
		t.Errorf("unexpected group masks: %+v", got.GroupMasks)
	}
}

func TestCLIHarnessPreviewDefaultsToJSONWhenPiped(t *testing.T) {
	f := writeFixtures(t)

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "preview", f.document)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got previewJSON
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("parse output %q: %v", stdout, err)
	}
	if got.Title != "Behavior" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestCLIHarnessPreviewQuery(t *testing.T) {
	f := writeFixtures(t)

	args := append(f.schemaArgs(), "-o", "json", "--query", ".title", "preview", f.document)
	stdout, _, err := runCLI(t, nil, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `"Behavior"` {
		t.Errorf("got %s, want %s", got, `"Behavior"`)
	}
}

func TestCLIHarnessPreviewQueryFile(t *testing.T) {
	f := writeFixtures(t)
	queryPath := filepath.Join(f.dir, "names.jq")
	writeFile(t, queryPath, "[.registers.rows[][0]]\n")

	args := append(f.schemaArgs(), "-o", "json", "--query-file", queryPath, "preview", f.document)
	stdout, _, err := runCLI(t, nil, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(stdout), &names); err != nil {
		t.Fatalf("parse output %q: %v", stdout, err)
	}
	if want := []string{"DigitalInputState", "OutputSet"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestCLIHarnessPreviewText(t *testing.T) {
	f := writeFixtures(t)

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "text", "preview", f.document)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(stdout, "Behavior\n") {
		t.Errorf("expected title first, got %q", stdout)
	}
	if !strings.Contains(stdout, "Registers\n") {
		t.Errorf("expected %q in output, got %q", "Registers\n", stdout)
	}
	if !strings.Contains(stdout, "Bit Masks\n") {
		t.Errorf("expected %q in output, got %q", "Bit Masks\n", stdout)
	}
	if !strings.Contains(stdout, "DigitalInputs\nDigital inputs.\n") {
		t.Errorf("expected %q in output, got %q", "DigitalInputs\nDigital inputs.\n", stdout)
	}
	if !strings.Contains(stdout, "Group Masks\n") {
		t.Errorf("expected %q in output, got %q", "Group Masks\n", stdout)
	}
}

func TestCLIHarnessPreviewTableWithRowOptions(t *testing.T) {
	f := writeFixtures(t)

	args := append(f.schemaArgs(),
		"-o", "table",
		"--result-sort-by", "address",
		"--result-desc",
		"--result-limit", "1",
		"preview", f.document,
	)
	stdout, _, err := runCLI(t, nil, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "OutputSet") {
		t.Errorf("expected %q in output, got %q", "OutputSet", stdout)
	}
	if strings.Contains(stdout, "DigitalInputState") {
		t.Errorf("unexpected %q in output: %q", "DigitalInputState", stdout)
	}
	if strings.Contains(stdout, "Registers") {
		t.Errorf("unexpected %q in output: %q", "Registers", stdout)
	}
}

func TestCLIHarnessPreviewHTML(t *testing.T) {
	f := writeFixtures(t)

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "html", "preview", f.document)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "<h1>Behavior</h1>") {
		t.Errorf("expected %q in output, got %q", "<h1>Behavior</h1>", stdout)
	}
	if !strings.Contains(stdout, "<th>max</th>") {
		t.Errorf("expected %q in output, got %q", "<th>max</th>", stdout)
	}
	if !strings.Contains(stdout, "<td>0x2</td>") {
		t.Errorf("expected %q in output, got %q", "<td>0x2</td>", stdout)
	}
}

func TestCLIHarnessPreviewStdin(t *testing.T) {
	f := writeFixtures(t)

	args := append(f.schemaArgs(), "-o", "json", "--query", ".title", "preview", "-")
	stdout, _, err := runCLI(t, strings.NewReader("device: FromStdin\n"), args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `"FromStdin"` {
		t.Errorf("got %s, want %s", got, `"FromStdin"`)
	}
}

func TestCLIHarnessPreviewWatchRejectsStdin(t *testing.T) {
	f := writeFixtures(t)

	_, stderr, err := runCLI(t, strings.NewReader("device: X\n"), append(f.schemaArgs(), "-o", "json", "preview", "--watch", "-")...)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "--watch requires a file path") {
		t.Errorf("expected %q in output, got %q", "--watch requires a file path", stderr)
	}
}

func TestCLIHarnessSchemaPathsFromEnv(t *testing.T) {
	f := writeFixtures(t)
	t.Setenv("HARP_DEVICE_SCHEMA", f.deviceSchema)
	t.Setenv("HARP_REGISTER_SCHEMA", f.registerSchema)

	stdout, _, err := runCLI(t, nil, "--config", f.config, "-o", "json", "--query", ".title", "preview", f.document)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `"Behavior"` {
		t.Errorf("got %s, want %s", got, `"Behavior"`)
	}
}

func TestCLIHarnessSchemaPathsFromConfig(t *testing.T) {
	f := writeFixtures(t)
	t.Setenv("HARP_DEVICE_SCHEMA", "")
	t.Setenv("HARP_REGISTER_SCHEMA", "")
	writeFile(t, f.config, "device_schema: "+f.deviceSchema+"\nregister_schema: "+f.registerSchema+"\n")

	stdout, _, err := runCLI(t, nil, "--config", f.config, "-o", "json", "--query", ".title", "preview", f.document)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `"Behavior"` {
		t.Errorf("got %s, want %s", got, `"Behavior"`)
	}
}

func TestCLIHarnessMissingSchemaPath(t *testing.T) {
	f := writeFixtures(t)
	t.Setenv("HARP_DEVICE_SCHEMA", "")
	t.Setenv("HARP_REGISTER_SCHEMA", "")

	_, stderr, err := runCLI(t, nil, "--config", f.config, "-o", "text", "preview", f.document)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "device schema required") {
		t.Errorf("expected %q in output, got %q", "device schema required", stderr)
	}
}

func TestCLIHarnessMalformedSchemaEnvelope(t *testing.T) {
	f := writeFixtures(t)
	writeFile(t, f.deviceSchema, `{"allOf": [{"title": "no properties"}]}`)

	_, stderr, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "json", "preview", f.document)...)
	if err == nil {
		t.Fatal("expected error")
	}

	var envelope map[string]map[string]any
	if err := json.Unmarshal([]byte(stderr), &envelope); err != nil {
		t.Fatalf("parse output %q: %v", stderr, err)
	}
	want := map[string]any{"type": "malformed_schema", "category": "user", "path": "allOf[0].properties"}
	for key, value := range want {
		if envelope["error"][key] != value {
			t.Errorf("error.%s = %v, want %v", key, envelope["error"][key], value)
		}
	}
}

func TestCLIHarnessDocumentErrorEnvelope(t *testing.T) {
	f := writeFixtures(t)
	writeFile(t, f.document, "- not\n- a mapping\n")

	_, stderr, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "yaml", "preview", f.document)...)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "type: document") {
		t.Errorf("expected %q in output, got %q", "type: document", stderr)
	}
	if !strings.Contains(stderr, "category: user") {
		t.Errorf("expected %q in output, got %q", "category: user", stderr)
	}
}

func TestCLIHarnessMaskErrorDoesNotFailPreview(t *testing.T) {
	f := writeFixtures(t)
	writeFile(t, f.document, "device: Odd\nbitMasks:\n  Bad:\n    bits:\n      X: high\n  Good:\n    bits:\n      Y: 4\n")

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "json", "preview", f.document)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got previewJSON
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("parse output %q: %v", stdout, err)
	}
	if len(got.BitMasks) != 2 {
		t.Fatalf("expected 2 bit masks, got %d", len(got.BitMasks))
	}
	if got.BitMasks[0].Table != nil || !strings.Contains(got.BitMasks[0].Error, "not numeric") {
		t.Errorf("expected failed mask, got %+v", got.BitMasks[0])
	}
	if got.BitMasks[1].Table == nil {
		t.Fatal("expected second mask to decode")
	}
	if want := [][]any{{"Y", "0x4", ""}}; !reflect.DeepEqual(got.BitMasks[1].Table.Rows, want) {
		t.Errorf("rows = %v, want %v", got.BitMasks[1].Table.Rows, want)
	}
}

func TestCLIHarnessMissingDocument(t *testing.T) {
	f := writeFixtures(t)

	_, stderr, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "text", "preview", filepath.Join(f.dir, "nope.yml"))...)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "failed to read") {
		t.Errorf("expected %q in output, got %q", "failed to read", stderr)
	}
}

func TestCLIHarnessSchemaCommand(t *testing.T) {
	f := writeFixtures(t)

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "json", "schema")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Device []struct {
			Name string `json:"name"`
		} `json:"device"`
		Register []struct {
			Name string `json:"name"`
		} `json:"register"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("parse output %q: %v", stdout, err)
	}
	if len(got.Device) != 2 || got.Device[0].Name != "whoAmI" || got.Device[1].Name != "firmwareVersion" {
		t.Errorf("unexpected device descriptors: %+v", got.Device)
	}
	if len(got.Register) != 3 || got.Register[2].Name != "maxValue" {
		t.Errorf("unexpected register descriptors: %+v", got.Register)
	}
}

func TestCLIHarnessSchemaCommandText(t *testing.T) {
	f := writeFixtures(t)

	stdout, _, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "text", "schema")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "Device attributes\n") {
		t.Errorf("expected %q in output, got %q", "Device attributes\n", stdout)
	}
	if !strings.Contains(stdout, "Register attributes\n") {
		t.Errorf("expected %q in output, got %q", "Register attributes\n", stdout)
	}
	if !strings.Contains(stdout, "maxValue  max") {
		t.Errorf("expected %q in output, got %q", "maxValue  max", stdout)
	}
}

func TestCLIHarnessDebugLogging(t *testing.T) {
	f := writeFixtures(t)

	_, stderr, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "json", "--debug", "preview", f.document)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "level=DEBUG") {
		t.Errorf("expected %q in output, got %q", "level=DEBUG", stderr)
	}
	if !strings.Contains(stderr, `msg="preview built"`) {
		t.Errorf("expected %q in output, got %q", `msg="preview built"`, stderr)
	}
}

func TestCLIHarnessInvalidOutputFormat(t *testing.T) {
	f := writeFixtures(t)

	_, stderr, err := runCLI(t, nil, append(f.schemaArgs(), "-o", "xml", "preview", f.document)...)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, "invalid --output format") {
		t.Errorf("expected %q in output, got %q", "invalid --output format", stderr)
	}
}

func TestCLIHarnessConfigOutputFormat(t *testing.T) {
	f := writeFixtures(t)
	t.Setenv("HARP_OUTPUT_FORMAT", "")
	if err := os.WriteFile(f.config, []byte("output_format: yaml\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Piped stdout still wins over the configured format.
	stdout, _, err := runCLI(t, nil, "--config", f.config, "--device-schema", f.deviceSchema, "--register-schema", f.registerSchema, "preview", f.document)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !json.Valid([]byte(stdout)) {
		t.Errorf("expected json output, got %q", stdout)
	}
}
