package main

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs

// @title           postboard API
// @version         0.1.0
// @description     Posts API behind the postboard gateway: health, list and create.
// @BasePath        /
// @schemes         http
