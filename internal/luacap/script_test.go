package luacap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

const waterScript = `
function capability()
    return {
        name = "log_water_intake",
        description = "Log a water intake amount in milliliters",
        category = "productivity",
        examples = { "I drank 500ml of water" },
        params = {
            { name = "amount_ml", type = "int", required = true },
            { name = "note", type = "string", default = "" },
        },
    }
end

function run(args)
    if args.amount_ml == 0 then
        error("amount_ml must be positive")
    end
    return { status = "logged", amount_ml = args.amount_ml, note = args.note }
end
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndInvoke(t *testing.T) {
	path := writeScript(t, t.TempDir(), "water.lua", waterScript)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "log_water_intake" {
		t.Errorf("name = %q", s.Name())
	}

	methods := s.Methods()
	if len(methods) != 1 || len(methods[0].Params) != 2 {
		t.Fatalf("methods = %+v", methods)
	}
	if methods[0].Params[0].Name != "amount_ml" || methods[0].Params[0].Type != capability.TypeInt {
		t.Errorf("param = %+v", methods[0].Params[0])
	}
	if !methods[0].Params[1].HasDefault {
		t.Errorf("note should carry a default")
	}

	out, err := methods[0].Invoke(context.Background(), capability.Args{"amount_ml": 500, "note": "post workout"})
	if err != nil {
		t.Fatal(err)
	}
	m := out.(map[string]any)
	if m["status"] != "logged" || m["amount_ml"] != 500 {
		t.Errorf("result = %v", m)
	}
}

func TestScriptErrorPropagates(t *testing.T) {
	path := writeScript(t, t.TempDir(), "water.lua", waterScript)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Methods()[0].Invoke(context.Background(), capability.Args{"amount_ml": 0}); err == nil {
		t.Error("expected script error")
	}
}

func TestSelfDiscoveryPicksUpScripts(t *testing.T) {
	path := writeScript(t, t.TempDir(), "water.lua", waterScript)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	store := capability.NewStore(capability.NewSelfDiscovery())
	if err := store.Register("lua:water", s); err != nil {
		t.Fatal(err)
	}
	if err := store.DiscoverAll(); err != nil {
		t.Fatal(err)
	}
	d, ok := store.Describe("log_water_intake")
	if !ok {
		t.Fatal("script capability not discovered")
	}
	if d.Category != "productivity" || len(d.Examples) != 1 {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestLoadRejectsBrokenScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "nometa.lua", `function run(args) return "x" end`)
	if _, err := LoadDir(dir); err == nil {
		t.Error("expected error for script without capability()")
	}
}

func TestLoadDirMissingIsNotError(t *testing.T) {
	scripts, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil || scripts != nil {
		t.Errorf("scripts=%v err=%v", scripts, err)
	}
}
