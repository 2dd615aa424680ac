package main

import "pdf-collab/client/pdfshare-cli/cmd"

func main() {
	cmd.Execute()
}
