package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/sandertv/gophertunnel/minecraft/resource"
)

// packSet holds the resource packs of the server along with the summaries
// shown to plugins.
type packSet struct {
	packs []*resource.Pack
	infos []cplayer.PackInfo
}

// loadPacks reads every resource pack in dir, creating dir if needed.
func loadPacks(dir string) (packSet, error) {
	if dir == "" {
		return packSet{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return packSet{}, fmt.Errorf("create resource folder: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return packSet{}, fmt.Errorf("read resource folder: %w", err)
	}
	var set packSet
	for _, entry := range entries {
		pack, err := resource.ReadPath(filepath.Join(dir, entry.Name()))
		if err != nil {
			return packSet{}, fmt.Errorf("compile resource (%v): %w", entry.Name(), err)
		}
		set.packs = append(set.packs, pack)
		set.infos = append(set.infos, cplayer.PackInfo{UUID: fmt.Sprint(pack.UUID()), Name: pack.Name(), Version: pack.Version()})
	}
	return set, nil
}
