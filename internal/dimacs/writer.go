package dimacs

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Write serializes the instance in DIMACS CNF format: leading comments, the
// problem line, then one clause per line terminated by 0. Parsing the output
// yields an equivalent instance.
func Write(w io.Writer, inst *Instance) error {
	bw := bufio.NewWriter(w)

	for _, comment := range inst.Comments {
		bw.WriteString("c ")
		bw.WriteString(comment)
		bw.WriteByte('\n')
	}

	bw.WriteString("p cnf ")
	bw.WriteString(strconv.Itoa(inst.Variables))
	bw.WriteByte(' ')
	bw.WriteString(strconv.Itoa(len(inst.Clauses)))
	bw.WriteByte('\n')

	for _, clause := range inst.Clauses {
		for _, l := range clause {
			bw.WriteString(strconv.Itoa(l))
			bw.WriteByte(' ')
		}
		bw.WriteString("0\n")
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "error writing instance")
	}
	return nil
}
