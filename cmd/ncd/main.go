// Command ncd computes a normalized compression distance matrix over a
// directory of files, using the statistical compression core as the
// complexity estimator.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/method"
)

var (
	methodName = flag.String("method", "byte-mix", "compression method used as the complexity estimator: order0-arith, ppm, byte-mix, bit-mix")
	dataDir    = flag.String("d", ".", "data directory")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := run(*methodName, *dataDir); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(methodName, dir string) error {
	data, err := listFiles(dir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	distMat, err := distanceMatrix(methodName, data)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := display(data, distMat); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// display prints the file basenames (in distanceMatrix's row/column order)
// and the upper-triangular distance values as two JSON arrays, so output can
// be piped straight into a plotting or clustering tool without a custom
// parser on the other end.
func display(data []string, distMat []float64) error {
	names := make([]string, len(data))
	for i, fpath := range data {
		name := filepath.Base(fpath)
		names[i] = strings.TrimSuffix(name, filepath.Ext(name))
	}

	namesJSON, err := json.Marshal(names)
	if err != nil {
		return errors.Wrap(err, "")
	}
	log.Printf("%s", namesJSON)

	distJSON, err := json.Marshal(distMat)
	if err != nil {
		return errors.Wrap(err, "")
	}
	log.Printf("%s", distJSON)

	return nil
}

// distance computes the normalized compression distance between x and y:
// (C(xy) - min(C(x),C(y))) / max(C(x),C(y)), where C is the compressed size
// under methodName.
func distance(cacher map[string]float64, methodName, x, y string) (float64, error) {
	xData, err := os.ReadFile(x)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	yData, err := os.ReadFile(y)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	xy := append(append([]byte{}, xData...), yData...)

	kxy, err := complexity(cacher, methodName, x+"\x00"+y, xy)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	kx, err := complexity(cacher, methodName, x, xData)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	ky, err := complexity(cacher, methodName, y, yData)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	minxy := kx
	if ky < kx {
		minxy = ky
	}
	maxxy := kx
	if ky > kx {
		maxxy = ky
	}

	dist := (kxy - minxy) / maxxy
	return dist, nil
}

func complexity(cacher map[string]float64, methodName, cacheKey string, data []byte) (float64, error) {
	size, ok := cacher[cacheKey]
	if ok {
		return size, nil
	}

	var result method.Result
	var err error
	switch methodName {
	case "order0-arith":
		result, err = method.CompressOrder0(data)
	case "ppm":
		result, err = method.CompressPPM(data, 4)
	case "byte-mix":
		result, err = method.CompressByteMix(data)
	case "bit-mix":
		result, err = method.CompressBitMix(data)
	default:
		return -1, errors.Errorf("unknown method %q", methodName)
	}
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	size = float64(len(result.Data))

	cacher[cacheKey] = size
	return size, nil
}

func distanceMatrix(methodName string, data []string) ([]float64, error) {
	cacher := make(map[string]float64)

	n := len(data)
	mat := make([]float64, 0, n*(n-1)/2)
	for i, dx := range data[:n-1] {
		for _, dy := range data[i+1:] {
			dist, err := distance(cacher, methodName, dx, dy)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			mat = append(mat, dist)
			log.Printf("\"%s\"-\"%s\": %f", dx, dy, dist)
		}
	}
	return mat, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	data := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data = append(data, filepath.Join(dir, e.Name()))
	}
	return data, nil
}
