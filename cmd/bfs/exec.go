package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bfswalk/bfs/internal/walk"
)

// execer is the real os/exec-backed Execer the core's -exec family is
// an external collaborator for: it runs argv with the process's own
// stdio attached and reports success as a clean exit status. When
// confirm is set (-ok/-okdir), it first prompts on stderr and only
// runs the command if the reply starts with 'y' or 'Y', matching
// find's own confirmation behavior.
func execer(argv []string, entry *walk.Entry, confirm bool) (bool, error) {
	if confirm && !confirmExec(argv) {
		return false, nil
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err != nil {
		return false, err
	}
	return true, nil
}

func confirmExec(argv []string) bool {
	fmt.Fprintf(os.Stderr, "%s ? ", strings.Join(argv, " "))
	reply, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && reply == "" {
		return false
	}
	reply = strings.TrimSpace(reply)
	return len(reply) > 0 && (reply[0] == 'y' || reply[0] == 'Y')
}
