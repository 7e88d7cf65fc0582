package tilereader

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fetchWorkers bounds the parallelism of a batch fetch.
const fetchWorkers = 4

var httpClient = &http.Client{}

type tileRequest struct {
	URL   string
	Coord TileCoord
}

type tileResult struct {
	Coord TileCoord
	Data  []byte
}

// fetchBatch downloads every request with bounded parallelism. progress is
// invoked once per completed item with the completed count; cancelled is
// polled before each dispatch, so requests already in flight still finish.
// Failed or empty responses are logged and dropped.
func fetchBatch(requests []tileRequest, progress func(int), cancelled func() bool) []tileResult {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		done    int
		results []tileResult
	)
	g.SetLimit(fetchWorkers)
	for _, req := range requests {
		if cancelled != nil && cancelled() {
			break
		}
		req := req
		g.Go(func() error {
			if cancelled != nil && cancelled() {
				return nil
			}
			data := fetchTile(req.URL)
			mu.Lock()
			if data != nil {
				results = append(results, tileResult{Coord: req.Coord, Data: data})
			}
			done++
			if progress != nil {
				progress(done)
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

func fetchTile(url string) []byte {
	resp, err := httpClient.Get(url)
	if err != nil {
		log.Debugf("fetch %s error, details: %s", url, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Debugf("fetch %s tile error, status code: %d", url, resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debugf("read %s tile error: %s", url, err)
		return nil
	}
	if len(body) == 0 {
		log.Debugf("nil tile %s", url)
		return nil
	}
	return body
}

// urlExists probes the URL and reports the final location after redirects.
func urlExists(rawURL string) (string, error) {
	resp, err := httpClient.Head(rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("HEAD %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String(), nil
	}
	return rawURL, nil
}
