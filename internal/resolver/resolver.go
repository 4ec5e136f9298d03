// Package resolver maps an enumerated adapter to the interface configuration
// that drives it: first the candidate set is narrowed and one adapter is
// selected, then a configuration path is derived for it.
package resolver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/config"
	"github.com/zon07/ocdrun/internal/standdb"
)

// Resolver carries the pieces adapter selection and config derivation need.
type Resolver struct {
	Cfg    *config.Config
	DB     *standdb.Database
	Prompt Prompter
	Out    io.Writer
}

// New creates a Resolver that prompts on the terminal and reports to stdout.
func New(cfg *config.Config, db *standdb.Database) *Resolver {
	return &Resolver{Cfg: cfg, DB: db, Prompt: ReadlinePrompter{}, Out: os.Stdout}
}

// Narrow filters the candidate list before selection. In auto-config mode
// only adapters from the known-supported allow-list survive; when a stand
// database is active only adapters it knows survive. Dropped adapters are
// always reported with a count, never discarded silently.
func (r *Resolver) Narrow(records []adapter.Record, settings config.Settings) []adapter.Record {
	switch {
	case settings.AutoConfig:
		allow := r.Cfg.EffectiveAllowList()
		kept := records[:0:0]
		for _, rec := range records {
			for _, pat := range allow {
				if strings.Contains(strings.ToLower(rec.Description), strings.ToLower(pat)) {
					kept = append(kept, rec)
					break
				}
			}
		}
		if dropped := len(records) - len(kept); dropped > 0 {
			fmt.Fprintf(r.Out, "Dropped %d adapter(s) not on the auto-config allow-list\n", dropped)
		}
		return kept

	case r.DB != nil && r.DB.Len() > 0:
		kept := records[:0:0]
		for _, rec := range records {
			if rec.HasSerial() && r.DB.Has(rec.Serial) {
				kept = append(kept, rec)
			}
		}
		if dropped := len(records) - len(kept); dropped > 0 {
			fmt.Fprintf(r.Out, "Dropped %d adapter(s) absent from the stand database\n", dropped)
		}
		return kept
	}
	return records
}

// SelectAdapter picks one adapter from the narrowed candidate list and
// returns its index. Priority: exact serial filter, explicit index filter,
// lone candidate, interactive prompt. A remaining ambiguity is fatal.
func (r *Resolver) SelectAdapter(records []adapter.Record, settings config.Settings) (int, error) {
	if len(records) == 0 {
		return -1, fmt.Errorf("no debug adapters found")
	}

	if settings.Serial != "" {
		for i, rec := range records {
			if rec.Serial == settings.Serial {
				return i, nil
			}
		}
		return -1, fmt.Errorf("no adapter with serial %s found", settings.Serial)
	}

	if settings.AdapterIndex >= 0 {
		if settings.AdapterIndex >= len(records) {
			return -1, fmt.Errorf("adapter index %d out of range, %d adapter(s) found",
				settings.AdapterIndex, len(records))
		}
		return settings.AdapterIndex, nil
	}

	if len(records) == 1 {
		return 0, nil
	}

	if !settings.Interactive {
		return -1, fmt.Errorf("%d adapters found - pass --serial or --adapter, or run with --interactive", len(records))
	}

	for i, rec := range records {
		fmt.Fprintf(r.Out, "  [%d] %s (serial %s, bus %s dev %s)\n",
			i, rec.Description, rec.Serial, rec.BusID, rec.DeviceID)
	}
	reply, err := r.Prompt.Ask(fmt.Sprintf("Select adapter [0-%d]: ", len(records)-1))
	if err != nil {
		return -1, err
	}
	idx, err := strconv.Atoi(reply)
	if err != nil {
		return -1, fmt.Errorf("invalid adapter selection %q", reply)
	}
	if idx < 0 || idx >= len(records) {
		return -1, fmt.Errorf("adapter selection %d out of range", idx)
	}
	return idx, nil
}

// ResolveConfig derives the interface configuration path for the selected
// adapter. Priority: explicit override ("-" prompts for a path), stand
// database entry, then the ordered description-pattern rules. The result is
// absolutized against the scripts directory and must exist.
func (r *Resolver) ResolveConfig(rec adapter.Record, settings config.Settings) (string, error) {
	path, err := r.derive(rec, settings)
	if err != nil {
		return "", err
	}
	return r.locate(path)
}

func (r *Resolver) derive(rec adapter.Record, settings config.Settings) (string, error) {
	if settings.ConfigOverride != "" {
		if settings.ConfigOverride != "-" {
			return settings.ConfigOverride, nil
		}
		reply, err := r.Prompt.Ask("Interface config path: ")
		if err != nil {
			return "", err
		}
		if reply == "" {
			return "", fmt.Errorf("empty interface config path")
		}
		return reply, nil
	}

	if rec.HasSerial() && r.DB != nil {
		if cfg, ok := r.DB.Lookup(rec.Serial); ok {
			return cfg, nil
		}
	}

	desc := strings.ToLower(rec.Description)
	for _, rule := range r.Cfg.Patterns {
		if strings.Contains(desc, strings.ToLower(rule.Pattern)) {
			return rule.Config, nil
		}
	}
	return "", fmt.Errorf("unrecognized adapter %q - pass an interface config explicitly", rec.Description)
}

// locate turns path into an existing absolute path. Relative paths are tried
// under the scripts directory first, then under its interface subdirectory.
func (r *Resolver) locate(path string) (string, error) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, nil
		}
		return "", fmt.Errorf("interface config %s does not exist", path)
	}

	candidates := []string{
		filepath.Join(r.Cfg.ScriptsDir, path),
		filepath.Join(r.Cfg.ScriptsDir, "interface", path),
	}
	for _, cand := range candidates {
		if fileExists(cand) {
			return cand, nil
		}
	}
	return "", fmt.Errorf("interface config %s not found under %s", path, r.Cfg.ScriptsDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
