package config

// Base application details
const AppName = "ered"
const ConfigDirName = "ered"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "ered.log"

// Editor defaults
const DefaultWindowSize = 22
const DefaultInplaceExt = ""
