/*
 * config.go, part of qmbatch.
 *
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

// Package config loads the qmbatch settings from defaults, an optional YAML
// file and QMBATCH_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rmera/qmbatch/qm"
)

// Config aggregates the configuration of every subcommand.
type Config struct {
	Split  SplitConfig  `mapstructure:"split"`
	Run    RunConfig    `mapstructure:"run"`
	Report ReportConfig `mapstructure:"report"`
	Log    LogConfig    `mapstructure:"log"`
}

// SplitConfig drives the partitioner.
type SplitConfig struct {
	Source  string `mapstructure:"source" validate:"required"`
	Primary int    `mapstructure:"primary" validate:"min=1"`
	Sub     int    `mapstructure:"sub" validate:"min=1"`
	Root    string `mapstructure:"root" validate:"required"`
	Prune   bool   `mapstructure:"prune"`
}

// RunConfig drives the record processor.
type RunConfig struct {
	Engine    string `mapstructure:"engine" validate:"oneof=psi4 orca"`
	Command   string `mapstructure:"command"` //empty for the engine's default
	Threads   int    `mapstructure:"threads" validate:"min=1"`
	Method    string `mapstructure:"method" validate:"required"`
	Basis     string `mapstructure:"basis" validate:"required"`
	Memory    int    `mapstructure:"memory" validate:"min=1"` //MB
	Charge    int    `mapstructure:"charge"`
	Multi     int    `mapstructure:"multi" validate:"min=1"`
	WorkDir   string `mapstructure:"workdir" validate:"required"`
	Sentinel  string `mapstructure:"sentinel"`
	Processed string `mapstructure:"processed"` //path or bucket URL
	Errored   string `mapstructure:"errored"`
	Cleanup   bool   `mapstructure:"cleanup"`
}

type ReportConfig struct {
	Bins int `mapstructure:"bins" validate:"min=1"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"` //JSON run log, none if empty
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	calc := new(qm.Calc)
	calc.SetDefaults()
	return &Config{
		Split: SplitConfig{
			Source:  "tmqm_co_diss_xtb_opt.xyz",
			Primary: 552,
			Sub:     2,
			Root:    ".",
		},
		Run: RunConfig{
			Engine:    qm.Psi4,
			Threads:   40,
			Method:    calc.Method,
			Basis:     calc.Basis,
			Memory:    calc.Memory,
			Charge:    calc.Charge,
			Multi:     calc.Multi,
			WorkDir:   ".",
			Sentinel:  "*",
			Processed: "processed_molecules.csv",
			Errored:   "error_molecules.csv",
		},
		Report: ReportConfig{Bins: 20},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads the configuration. If file is empty, qmbatch.yaml is looked for in
// the working directory and may be absent; a file given explicitly must exist.
// Environment variables use the prefix "QMBATCH" and the dot character in keys
// is replaced by an underscore, so "run.threads" becomes "QMBATCH_RUN_THREADS".
func Load(file string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("qmbatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("QMBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Run.Engine = strings.ToLower(cfg.Run.Engine)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Calc returns the calculation settings of the run.
func (r RunConfig) Calc() *qm.Calc {
	return &qm.Calc{
		Method: r.Method,
		Basis:  r.Basis,
		Memory: r.Memory,
		Charge: r.Charge,
		Multi:  r.Multi,
	}
}

// Handle returns a handle for the configured engine.
func (r RunConfig) Handle() (qm.Handle, error) {
	return qm.NewHandle(r.Engine, qm.Settings{
		Command: r.Command,
		NCPU:    r.Threads,
		Dir:     r.WorkDir,
	})
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
