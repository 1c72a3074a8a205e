package well

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdok/xyz/table"
)

const rmsUndefined = -999.0

// ReadRMSASCII reads a well in RMS ascii format:
//
//	1.0
//	Unknown
//	<name> <x> <y> [<rkb>]
//	<nlogs>
//	<log> <UNK|DISC|CONT> <lin|code name ...>
//	...
//	<x> <y> <z> <log values ...>
//
// -999 is undefined. DISC logs become integer columns.
func ReadRMSASCII(r io.Reader, opts Options) (*Well, error) {
	opts.setDefaults()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	next := func() ([]string, error) {
		for scanner.Scan() {
			lineNo++
			if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	header := func(what string) ([]string, error) {
		fields, err := next()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s at line %d: %w", ErrInvalidWell, what, lineNo, err)
		}
		return fields, nil
	}

	if _, err := header("version"); err != nil {
		return nil, err
	}
	if _, err := header("well type"); err != nil {
		return nil, err
	}
	fields, err := header("well name")
	if err != nil {
		return nil, err
	}
	name := fields[0]
	fields, err = header("number of logs")
	if err != nil {
		return nil, err
	}
	nlogs, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: number of logs at line %d: %w", ErrInvalidWell, lineNo, err)
	}

	specs := []table.Spec{
		{Name: opts.Names.X, Type: table.Float},
		{Name: opts.Names.Y, Type: table.Float},
		{Name: opts.Names.Z, Type: table.Float},
	}
	for i := 0; i < nlogs; i++ {
		fields, err := header("log definition")
		if err != nil {
			return nil, err
		}
		ctype := table.Float
		if len(fields) > 1 && strings.EqualFold(fields[1], "DISC") {
			ctype = table.Int
		}
		specs = append(specs, table.Spec{Name: fields[0], Type: ctype})
	}
	t := table.New(specs...)

	for {
		fields, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(fields) != len(specs) {
			return nil, fmt.Errorf("%w: line %d: expected %d values, got %d", ErrInvalidWell, lineNo, len(specs), len(fields))
		}
		row := make([]any, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidWell, lineNo, err)
			}
			if v != rmsUndefined {
				row[i] = v
			}
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return New(name, t, opts)
}

// ReadFiles reads every path as an RMS ascii well
func ReadFiles(paths []string, opts Options) (Wells, error) {
	wells := make(Wells, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		w, err := ReadRMSASCII(f, opts)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		wells = append(wells, w)
	}
	return wells, nil
}
