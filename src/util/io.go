package util

import (
	"fmt"
	"io/ioutil"
	"os"
)

// ReadSource reads source code from the file named by opt.Src, or from
// stdin if opt.Src is empty.
func ReadSource(opt Options) (string, error) {
	if len(opt.Src) > 0 {
		b, err := ioutil.ReadFile(opt.Src)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteOutput writes s to the file named by opt.Out, or to stdout if
// opt.Out is empty.
func WriteOutput(opt Options, s string) error {
	if len(opt.Out) == 0 {
		_, err := fmt.Print(s)
		return err
	}
	return ioutil.WriteFile(opt.Out, []byte(s), 0644)
}
