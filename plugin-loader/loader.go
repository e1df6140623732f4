package plugin_loader

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/relloyd/tableload/constants"
)

const symbolName = "Exports"

type Loc []string

// DefaultLocations are searched after TL_PLUGIN_DIR and the directory of the executable.
var DefaultLocations = Loc{
	"/usr/local/lib",
}

func (l Loc) String() string {
	tmp := make([]string, 0, len(l))
	for _, v := range l {
		tmp = append(tmp, fmt.Sprintf("'%v'", v))
	}
	return strings.Join(tmp, ", ")
}

// Locations returns the directories to search in order: TL_PLUGIN_DIR if set, the directory
// containing the running executable, then DefaultLocations.
func Locations() Loc {
	l := make(Loc, 0, len(DefaultLocations)+2)
	if d := os.Getenv(constants.EnvVarPluginDir); d != "" {
		l = append(l, d)
	}
	if ex, err := os.Executable(); err == nil {
		if exReal, err := filepath.EvalSymlinks(ex); err == nil {
			l = append(l, filepath.Dir(exReal))
		}
	}
	return append(l, DefaultLocations...)
}

// LoadPluginExports opens the first pluginName found in Locations and returns its Exports symbol.
func LoadPluginExports(pluginName string) (interface{}, error) {
	return loadFrom(Locations(), pluginName)
}

func loadFrom(locations Loc, pluginName string) (interface{}, error) {
	var errs *multierror.Error
	for _, l := range locations { // for each location...
		fullPath := filepath.Join(l, pluginName)
		plug, err := plugin.Open(fullPath)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%v: %v", fullPath, err))
			continue
		}
		t, err := plug.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("symbol %v not found in plugin %v: %v", symbolName, fullPath, err)
		}
		return t, nil
	}
	if errs == nil {
		return nil, fmt.Errorf("unable to load plugin %v: no locations to search", pluginName)
	}
	return nil, fmt.Errorf("unable to load plugin %v (set %v to its directory): %v", pluginName, constants.EnvVarPluginDir, errs)
}
