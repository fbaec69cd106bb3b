// Command decompress reads one of the core's compressed containers from
// stdin and writes the original bytes to stdout.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/fumin/cmcore/method"
)

var methodName = flag.String("method", "byte-mix", "compression method: order0-arith, ppm, byte-mix, bit-mix")

func main() {
	flag.Parse()
	if err := run(*methodName); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(methodName string) error {
	data, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	var out []byte
	switch methodName {
	case "order0-arith":
		out, err = method.DecompressOrder0(data)
	case "ppm":
		out, err = method.DecompressPPM(data)
	case "byte-mix":
		out, err = method.DecompressByteMix(data)
	case "bit-mix":
		out, err = method.DecompressBitMix(data)
	default:
		return fmt.Errorf("unknown method %q", methodName)
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)
	return err
}
