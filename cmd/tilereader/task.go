package main

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"tilereader"
)

func InitTask() {
	start := time.Now()

	source, err := newSource()
	if err != nil {
		log.Fatalf("unable to open tile source: %s", err)
	}
	defer source.Close()

	task := NewTask(source)
	InitBreakPoint(task.Name)
	SafeExitInst.Register(source.Cancel)

	task.Run()

	secs := time.Since(start).Seconds()
	log.Printf("\n%.3fs finished...", secs)
}

func newSource() (tilereader.TileSource, error) {
	switch conf.Source.Type {
	case "mbtiles":
		return tilereader.NewMBTilesSource(conf.Source.Location)
	case "directory":
		return tilereader.NewDirectorySource(conf.Source.Location)
	default:
		return tilereader.NewServerSource(conf.Source.Location)
	}
}

// Task drives one bulk download over a tile source.
type Task struct {
	ID       string
	Name     string
	Source   tilereader.TileSource
	MinZoom  int
	MaxZoom  int
	MaxTiles int
}

// NewTask builds the task, narrowing the configured zoom window to what the
// source actually offers.
func NewTask(source tilereader.TileSource) *Task {
	id, _ := shortid.Generate()
	name := conf.Source.Name
	if name == "" {
		name = source.Name()
	}

	minZoom, maxZoom := conf.Task.MinZoom, conf.Task.MaxZoom
	if z, ok := source.MinZoom(); ok && z > minZoom {
		minZoom = z
	}
	if z, ok := source.MaxZoom(); ok && z < maxZoom {
		maxZoom = z
	}

	return &Task{
		ID:       id,
		Name:     name,
		Source:   source,
		MinZoom:  minZoom,
		MaxZoom:  maxZoom,
		MaxTiles: conf.Task.MaxTiles,
	}
}

func (task *Task) Run() {
	for z := task.MinZoom; z <= task.MaxZoom; z++ {
		task.runZoom(z)
		if conf.Task.TimeDelay > 0 && z < task.MaxZoom {
			time.Sleep(time.Duration(conf.Task.TimeDelay) * time.Second)
		}
	}
}

// tilesForZoom computes the candidate coordinates of one zoom level, either
// from the configured geojson regions or from the source's grid bounds.
func (task *Task) tilesForZoom(zoom int) []tilereader.TileCoord {
	scheme := task.Source.Scheme()
	coords := make([]tilereader.TileCoord, 0)
	covered := false
	for _, lrs := range conf.Lrs {
		if zoom < lrs.Min || zoom > lrs.Max || lrs.Geojson == "" {
			continue
		}
		covered = true
		collection := loadCollection(lrs.Geojson)
		tiles := make(chan maptile.Tile, 64)
		go tilecover.CollectionChannel(collection, maptile.Zoom(zoom), tiles)
		for t := range tiles {
			row := int(t.Y)
			if scheme == tilereader.SchemeTMS {
				row = tilereader.FlipRow(row, zoom)
			}
			coords = append(coords, tilereader.TileCoord{Column: int(t.X), Row: row})
		}
	}
	if !covered {
		b := task.Source.BoundsTile(zoom)
		for x := b.XMin; x <= b.XMax; x++ {
			for y := b.YMin; y <= b.YMax; y++ {
				coords = append(coords, tilereader.TileCoord{Column: x, Row: y})
			}
		}
	}
	return coords
}

func (task *Task) runZoom(zoom int) {
	coords := task.tilesForZoom(zoom)

	pending := make([]tilereader.TileCoord, 0, len(coords))
	for _, c := range coords {
		if BreakPointInst.IsSuccessed(zoom, c) {
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		log.Infof("zoom %d already complete", zoom)
		return
	}

	log.Infof("zoom: %d, tiles: %d", zoom, len(pending))
	bar := pb.New(len(pending)).Prefix(fmt.Sprintf("Zoom %d : ", zoom)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()

	listener := &tilereader.LoadListener{
		MaxProgressChanged: func(max int) { bar.SetTotal(max) },
		ProgressChanged:    func(current int) { bar.Set(current) },
		MessageChanged:     func(message string) { log.Infof("%s", message) },
		TileLimitReached: func() {
			log.Warnf("tile limit of %d reached at zoom %d", task.MaxTiles, zoom)
		},
	}

	loaded, err := task.Source.LoadTiles(zoom, pending, tilereader.LoadOptions{
		MaxTiles: task.MaxTiles,
		Listener: listener,
	})
	if err != nil {
		bar.Finish()
		log.Errorf("loading zoom %d failed: %s", zoom, err)
		return
	}

	for _, td := range loaded {
		if err := saveToFiles(td); err != nil {
			log.Errorf("create %v tile file error ~ %s", td.Tile, err)
			continue
		}
		BreakPointInst.SetSuccessed(zoom, tilereader.TileCoord{Column: td.Tile.Column, Row: td.Tile.Row})
	}
	bar.FinishPrint(fmt.Sprintf("Task %s Zoom %d finished, %d tiles ~", task.ID, zoom, len(loaded)))
}
