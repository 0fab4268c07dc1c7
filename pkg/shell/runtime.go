package shell

import (
	"fmt"
	"os"

	"github.com/rillsh/rill/pkg/errutil"
	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/plugin"
	"github.com/rillsh/rill/pkg/prog"
)

// setupEvaler creates the evaler and loads plugins per the flags. The
// returned cleanup function shuts loaded plugins down.
func setupEvaler(f *prog.Flags, stderr *os.File) (*eval.Evaler, func() error, error) {
	ev := eval.NewEvaler()
	if f.PluginDir == "" {
		return ev, func() error { return nil }, nil
	}

	var cache *plugin.Cache
	if f.DB != "" {
		var err error
		cache, err = plugin.OpenCache(f.DB)
		if err != nil {
			// The cache is an optimization; a broken database only
			// costs re-parsing the manifests.
			fmt.Fprintln(stderr, "warning: cannot open plugin cache:", err)
		}
	}

	manifests, err := plugin.LoadDir(f.PluginDir, cache)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, nil, err
	}

	var clients []*plugin.Client
	for _, m := range manifests {
		client, err := plugin.Register(ev, m)
		if err != nil {
			fmt.Fprintf(stderr, "warning: cannot load plugin %s: %v\n", m.Name, err)
			continue
		}
		logger.Println("loaded plugin", m.Name)
		clients = append(clients, client)
	}

	cleanup := func() error {
		var errs []error
		for _, c := range clients {
			errs = append(errs, c.Close())
		}
		if cache != nil {
			errs = append(errs, cache.Close())
		}
		return errutil.Multi(errs...)
	}
	return ev, cleanup, nil
}
