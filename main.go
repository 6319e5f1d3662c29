package main

import "campus-portal-backend/cmd"

func main() {
	cmd.Run()
}
