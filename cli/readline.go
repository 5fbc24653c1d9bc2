package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is read by ReadLine and AskConfirm.
var Stdin io.Reader = os.Stdin

// ReadLine prompts input from the user delimited by a new line
func ReadLine() (string, error) {
	line, err := bufio.NewReader(Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cannot read from stdin: %v", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskConfirm asks a yes/no question, anything but y or yes is a no.
func AskConfirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, err := ReadLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
