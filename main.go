package main

import (
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/cmd"
	_ "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
