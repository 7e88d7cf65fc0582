package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tilereader"
)

var BreakPointInst *BreakPoint

func InitBreakPoint(jobName string) {
	dir := conf.BreakPoint.SaveFilePath
	os.MkdirAll(dir, os.ModePerm)
	path := filepath.Join(dir, fmt.Sprintf("%s.log", jobName))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		fmt.Println(err)
		panic("break point file open failed")
	}

	successMap := readBreakPoint(file)

	BreakPointInst = &BreakPoint{
		file:       file,
		saveChan:   make(chan string, 64),
		successMap: successMap,
	}

	SafeExitInst.Register(BreakPointInst.CloseFun)

	go BreakPointInst.Start()
}

func readBreakPoint(file *os.File) map[string]struct{} {
	res := make(map[string]struct{})

	br := bufio.NewReader(file)
	for {
		line, isPrefix, err := br.ReadLine()
		if isPrefix {
			continue
		}
		if err == io.EOF {
			break
		}
		res[string(line)] = struct{}{}
	}
	return res
}

// BreakPoint journals finished tiles so an interrupted run resumes where it
// stopped instead of refetching everything.
type BreakPoint struct {
	file       *os.File
	saveChan   chan string
	successMap map[string]struct{}
	isClose    bool
}

func tileKey(zoom int, t tilereader.TileCoord) string {
	return fmt.Sprintf("%d-%d-%d", zoom, t.Column, t.Row)
}

func (b *BreakPoint) IsSuccessed(zoom int, t tilereader.TileCoord) bool {
	_, ok := b.successMap[tileKey(zoom, t)]
	return ok
}

func (b *BreakPoint) SetSuccessed(zoom int, t tilereader.TileCoord) {
	if b.isClose {
		return
	}
	b.saveChan <- tileKey(zoom, t)
}

func (b *BreakPoint) Start() {
	for key := range b.saveChan {
		b.file.WriteString(key + "\n")
	}
}

func (b *BreakPoint) CloseFun() {
	b.isClose = true
	b.file.Close()
}
