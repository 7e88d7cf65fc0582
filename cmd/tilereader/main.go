package main

func main() {
	InitFlag()
	InitSafeExit()
	InitConf(configPath)
	InitLog()
	InitTask()
}
