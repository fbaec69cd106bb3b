// Command compress reads a file and writes one of the core's compressed
// containers to stdout.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/fumin/cmcore/method"
)

var (
	methodName = flag.String("method", "byte-mix", "compression method: order0-arith, ppm, byte-mix, bit-mix")
	ppmOrder   = flag.Int("order", 4, "PPM context order (method=ppm only)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] filename\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(name, *methodName, *ppmOrder); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(name, methodName string, order int) error {
	data, err := ioutil.ReadFile(name)
	if err != nil {
		return err
	}

	var result method.Result
	switch methodName {
	case "order0-arith":
		result, err = method.CompressOrder0(data)
	case "ppm":
		result, err = method.CompressPPM(data, order)
	case "byte-mix":
		result, err = method.CompressByteMix(data)
	case "bit-mix":
		result, err = method.CompressBitMix(data)
	default:
		return fmt.Errorf("unknown method %q", methodName)
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(result.Data)
	return err
}
