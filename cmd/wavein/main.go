// Command wavein runs face and hand-gesture attendance from a camera.
package main

func main() {
	Execute()
}
