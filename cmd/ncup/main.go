package main

import (
	"log"

	"github.com/aaronsegura/ncfile/cmd/ncup/cmd"
)

func main() {
	if err := cmd.NewRoot().Execute(); err != nil {
		log.Printf("exec cmd failed, err:%v", err)
	}
}
