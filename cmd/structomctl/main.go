// Command structomctl converts Structom values between the `obj` (textual),
// `bin` (wire), and `json` CLI formats, and inspects declaration files.
package main

func main() {
	execute()
}
