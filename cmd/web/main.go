package main

import "medbook_backend/internal/app"

func main() {
	app.Run()
}
