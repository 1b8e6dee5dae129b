// adminpass prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from stdin
// (first line) so it does not land in shell history.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"codebrick-site/backend/internal/security"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost (4-31)")
	flag.Parse()

	fmt.Fprint(os.Stderr, "Admin password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "adminpass: no password read:", err)
		os.Exit(1)
	}
	password := strings.TrimRight(line, "\r\n")

	hash, err := security.NewHasher(*cost).Hash([]byte(password))
	if err != nil {
		fmt.Fprintln(os.Stderr, "adminpass:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
