package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
	"sigs.k8s.io/yaml"

	"go.jacobcolvin.com/kreate/config"
)

// write prints v in the configured output format.
func (c *cli) write(v any) error {
	var (
		data []byte
		err  error
	)

	switch c.cfg.Output.Format {
	case config.OutputYAML:
		data, err = yaml.Marshal(v)
	default:
		data, err = json.Marshal(v)
		if err == nil {
			data, err = c.indentJSON(data)
		}

		data = append(data, '\n')
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	_, err = c.stdout.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

func (c *cli) indentJSON(data []byte) ([]byte, error) {
	indent := c.cfg.Output.Indent
	if indent == 0 {
		if !c.isTerminal() {
			return data, nil
		}

		indent = 2
	}

	var buf bytes.Buffer

	err := json.Indent(&buf, data, "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (c *cli) isTerminal() bool {
	f, ok := c.stdout.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
