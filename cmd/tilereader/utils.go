package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tilereader"
)

func saveToFiles(td tilereader.TileData) error {
	dir := filepath.Join(conf.Output.Directory, fmt.Sprintf(`%d`, td.Tile.Zoom), fmt.Sprintf(`%d`, td.Tile.Column))
	os.MkdirAll(dir, os.ModePerm)
	fileName := filepath.Join(dir, fmt.Sprintf(`%d.pbf`, td.Tile.Row))
	return os.WriteFile(fileName, td.Data, os.ModePerm)
}

func loadCollection(path string) orb.Collection {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("unable to read file: %v", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		log.Fatalf("unable to unmarshal feature: %v", err)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}

	return collection
}
