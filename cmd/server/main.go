package main

import "taskflow/internal/app"

func main() {
	app.Run()
}
